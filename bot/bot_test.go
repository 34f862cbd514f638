/* bot_test.go
 * Contains unit tests for bot.go functions
 * Authors: Zachary Bower
 */

package bot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// region NewBot tests

func TestNewBot_Success(t *testing.T) {
	b, err := NewBot("token", "channel123", nil)
	require.NoError(t, err)
	assert.Equal(t, "token", b.BotToken)
	assert.Equal(t, "channel123", b.ChannelID)
}

func TestNewBot_MissingValues(t *testing.T) {
	_, err := NewBot("", "channel123", nil)
	assert.Error(t, err)

	_, err = NewBot("token", "", nil)
	assert.Error(t, err)
}

// endregion

// region Announce tests

func TestAnnounce_NotConnected(t *testing.T) {
	b, err := NewBot("token", "channel123", nil)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Announce("hello"), ErrNotConnected)
}

func TestAnnounce_SendsToChannel(t *testing.T) {
	b, err := NewBot("token", "channel123", nil)
	require.NoError(t, err)
	session := NewMockDiscordSession()
	b.setSession(session)

	require.NoError(t, b.Announce("League Cup has started with 2 teams"))
	assert.Equal(t, MockMessage{ChannelID: "channel123", Content: "League Cup has started with 2 teams"}, session.GetLastMessage())
}

func TestAnnounce_SessionError(t *testing.T) {
	b, err := NewBot("token", "channel123", nil)
	require.NoError(t, err)
	session := NewMockDiscordSession()
	session.ErrorToReturn = errors.New("rate limited")
	b.setSession(session)

	err = b.Announce("hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

// endregion

// region startsWith tests

func TestStartsWith(t *testing.T) {
	cases := []struct {
		content string
		command string
		want    bool
	}{
		{"$top", "$top", true},
		{"$top month", "$top", true},
		{"  $top  ", "$top", true},
		{"$topping", "$top", false},
		{"hello $top", "$top", false},
		{"$to", "$top", false},
		{"", "$help", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, startsWith(c.content, c.command), c.content)
	}
}

// endregion
