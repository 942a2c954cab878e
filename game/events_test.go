package game

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordListAcceptsArray(t *testing.T) {
	var w WordList
	require.NoError(t, json.Unmarshal([]byte(`["cat"," dog ","","bird"]`), &w))
	assert.Equal(t, WordList{"cat", "dog", "bird"}, w)
}

func TestWordListAcceptsCommaString(t *testing.T) {
	// The web client submits custom words as one comma-separated string.
	var w WordList
	require.NoError(t, json.Unmarshal([]byte(`"cat, dog ,,bird"`), &w))
	assert.Equal(t, WordList{"cat", "dog", "bird"}, w)
}

func TestWordListRejectsOtherShapes(t *testing.T) {
	var w WordList
	assert.Error(t, json.Unmarshal([]byte(`42`), &w))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	raw := []byte(`{"event":"guess","data":{"roomId":"ABC123","guess":"cat"}}`)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, EventGuess, env.Event)

	var d GuessData
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "ABC123", d.RoomID)
	assert.Equal(t, "cat", d.Guess)
}

func TestMakeErrorShape(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal(MakeError("boom"), &env))
	assert.Equal(t, EventError, env.Event)

	var d struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "boom", d.Message)
}

func TestMakeDrawEmptyLines(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal(MakeDraw(nil), &env))

	var d struct {
		Lines json.RawMessage `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.JSONEq(t, `[]`, string(d.Lines), "clients expect a list, never null")
}

func TestMakeTurnEnded(t *testing.T) {
	players := []PlayerInfo{{ID: "p1", Name: "ana", Score: 510, RoundPoints: 10}}
	var env Envelope
	require.NoError(t, json.Unmarshal(MakeTurnEnded("cat", []string{"bo"}, 125, players), &env))
	assert.Equal(t, EventTurnEnded, env.Event)

	var d struct {
		Word            string       `json:"word"`
		CorrectGuessers []string     `json:"correctGuessers"`
		DrawerBonus     int          `json:"drawerBonus"`
		Players         []PlayerInfo `json:"players"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "cat", d.Word)
	assert.Equal(t, []string{"bo"}, d.CorrectGuessers)
	assert.Equal(t, 125, d.DrawerBonus)
	require.Len(t, d.Players, 1)
	assert.Equal(t, 10, d.Players[0].RoundPoints)
}

func TestSettingsWireRoundTrip(t *testing.T) {
	s := Settings{
		Rounds:                5,
		DrawTimeSec:           90,
		WordCount:             4,
		CustomWords:           []string{"cat", "dog"},
		CustomWordProbability: 30,
		MaxPlayers:            10,
	}
	if diff := cmp.Diff(s, SettingsFromWire(s.Wire())); diff != "" {
		t.Errorf("settings changed across the wire (-want +got):\n%s", diff)
	}
}
