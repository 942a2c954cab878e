package game

import (
	"encoding/json"
	"strings"

	"drawzzl/logger"
)

// Every frame on the wire is a tagged envelope: {"event": "...", "data": {...}}.
// Each event name maps to exactly one payload shape below; anything that does
// not parse is answered with an error event to the sender only.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names (client -> server).
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventReconnect      = "reconnectToRoom"
	EventStartGame      = "startGame"
	EventUpdateSettings = "updateSettings"
	EventWordSelected   = "wordSelected"
	EventGuess          = "guess"
	EventChat           = "chat"
	EventDraw           = "draw"
	EventClearCanvas    = "clearCanvas"
	EventLeaveRoom      = "leaveRoom"
	EventReturnToLobby  = "returnToLobby"
)

// Outbound event names (server -> client).
const (
	EventRoomCreated         = "roomCreated"
	EventRoomJoined          = "roomJoined"
	EventReconnectionSuccess = "reconnectionSuccess"
	EventHostTransferred     = "hostTransferred"
	EventPlayerJoined        = "playerJoined"
	EventPlayerLeft          = "playerLeft"
	EventGameStarted         = "gameStarted"
	EventYourWord            = "yourWord"
	EventSelectWord          = "selectWord"
	EventDrawerSelecting     = "drawerSelecting"
	EventTick                = "tick"
	EventCorrectGuess        = "correctGuess"
	EventCloseGuess          = "closeGuess"
	EventTurnEnded           = "turnEnded"
	EventGameOver            = "gameOver"
	EventHintUpdate          = "hintUpdate"
	EventSettingsUpdated     = "settingsUpdated"
	EventError               = "error"
)

// --- Inbound payloads ---

type CreateRoomData struct {
	PlayerName string `json:"playerName"`
	Avatar     []int  `json:"avatar"`
	SessionID  string `json:"sessionId"`
}

type JoinRoomData struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	Avatar     []int  `json:"avatar"`
	SessionID  string `json:"sessionId"`
}

type ReconnectData struct {
	SessionID string `json:"sessionId"`
	RoomID    string `json:"roomId"`
}

type UpdateSettingsData struct {
	RoomID   string       `json:"roomId"`
	Settings SettingsData `json:"settings"`
}

type WordSelectedData struct {
	RoomID string `json:"roomId"`
	Word   string `json:"word"`
}

type GuessData struct {
	RoomID string `json:"roomId"`
	Guess  string `json:"guess"`
	Name   string `json:"name"`
}

type ChatInData struct {
	RoomID string `json:"roomId"`
	Msg    string `json:"msg"`
	Name   string `json:"name"`
}

type DrawInData struct {
	RoomID string          `json:"roomId"`
	Lines  json.RawMessage `json:"lines"`
}

// SettingsData is the wire form of Settings. Values outside the documented
// ranges are clamped on apply, never rejected.
type SettingsData struct {
	Rounds                int      `json:"rounds"`
	DrawTime              int      `json:"drawTime"`
	WordCount             int      `json:"wordCount"`
	CustomWords           WordList `json:"customWords"`
	CustomWordProbability int      `json:"customWordProbability"`
	MaxPlayers            int      `json:"maxPlayers"`
}

// WordList tolerates both a JSON array and the comma-separated string the
// web client sends for custom words.
type WordList []string

func (w *WordList) UnmarshalJSON(data []byte) error {
	var asList []string
	if err := json.Unmarshal(data, &asList); err == nil {
		*w = normalizeWords(asList)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return err
	}
	*w = normalizeWords(strings.Split(asString, ","))
	return nil
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// --- Outbound payloads ---

type PlayerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Avatar      [4]int `json:"avatar"`
	Connected   bool   `json:"connected"`
	IsDrawer    bool   `json:"isDrawer,omitempty"`
	RoundPoints int    `json:"roundPoints,omitempty"`
}

type ScoreEntry struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Avatar [4]int `json:"avatar"`
}

type ChatItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Msg  string `json:"msg"`
}

type GameStateSnapshot struct {
	GameStarted bool         `json:"gameStarted"`
	Round       int          `json:"round"`
	MaxRounds   int          `json:"maxRounds"`
	TimeLeft    int          `json:"timeLeft"`
	WordHint    string       `json:"wordHint"`
	IsYourTurn  bool         `json:"isYourTurn"`
	CurrentWord string       `json:"currentWord,omitempty"`
	Players     []PlayerInfo `json:"players"`
	RecentChat  []ChatItem   `json:"recentChat"`
	// CurrentDrawing is the latest full stroke list, exactly as last relayed.
	CurrentDrawing json.RawMessage `json:"currentDrawing"`
}

func marshalEnvelope(event string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Log.Error().Err(err).Str("event", event).Msg("failed to marshal event payload")
		raw = []byte("{}")
	}
	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		logger.Log.Error().Err(err).Str("event", event).Msg("failed to marshal envelope")
		return []byte(`{"event":"error","data":{"message":"internal error"}}`)
	}
	return out
}

func MakeRoomCreated(roomID, playerID string, isHost bool, sessionID string) []byte {
	return marshalEnvelope(EventRoomCreated, struct {
		RoomID    string `json:"roomId"`
		PlayerID  string `json:"playerId"`
		IsHost    bool   `json:"isHost"`
		SessionID string `json:"sessionId"`
	}{roomID, playerID, isHost, sessionID})
}

func MakeRoomJoined(roomID string, isHost bool, sessionID string) []byte {
	return marshalEnvelope(EventRoomJoined, struct {
		RoomID    string `json:"roomId"`
		IsHost    bool   `json:"isHost"`
		SessionID string `json:"sessionId"`
	}{roomID, isHost, sessionID})
}

func MakeReconnectionSuccess(roomID, sessionID string, isHost bool, player PlayerInfo, state GameStateSnapshot) []byte {
	return marshalEnvelope(EventReconnectionSuccess, struct {
		RoomID    string            `json:"roomId"`
		SessionID string            `json:"sessionId"`
		IsHost    bool              `json:"isHost"`
		Player    PlayerInfo        `json:"player"`
		GameState GameStateSnapshot `json:"gameState"`
	}{roomID, sessionID, isHost, player, state})
}

func MakeHostTransferred(isHost bool) []byte {
	return marshalEnvelope(EventHostTransferred, struct {
		IsHost bool `json:"isHost"`
	}{isHost})
}

func MakePlayerJoined(players []PlayerInfo) []byte {
	return marshalEnvelope(EventPlayerJoined, struct {
		Players []PlayerInfo `json:"players"`
	}{players})
}

func MakePlayerLeft(playerName, playerID string) []byte {
	return marshalEnvelope(EventPlayerLeft, struct {
		PlayerName string `json:"playerName"`
		PlayerID   string `json:"playerId"`
	}{playerName, playerID})
}

func MakeGameStarted(drawerID, wordHint string, timeLeft, round, maxRounds int) []byte {
	return marshalEnvelope(EventGameStarted, struct {
		DrawerID  string `json:"drawerId"`
		WordHint  string `json:"wordHint"`
		TimeLeft  int    `json:"timeLeft"`
		Round     int    `json:"round"`
		MaxRounds int    `json:"maxRounds"`
	}{drawerID, wordHint, timeLeft, round, maxRounds})
}

func MakeYourWord(word string) []byte {
	return marshalEnvelope(EventYourWord, struct {
		Word string `json:"word"`
	}{word})
}

func MakeSelectWord(words []string, timeLimit int, scores []ScoreEntry) []byte {
	return marshalEnvelope(EventSelectWord, struct {
		Words     []string     `json:"words"`
		TimeLimit int          `json:"timeLimit"`
		Scores    []ScoreEntry `json:"scores"`
	}{words, timeLimit, scores})
}

func MakeDrawerSelecting(scores []ScoreEntry) []byte {
	return marshalEnvelope(EventDrawerSelecting, struct {
		Scores []ScoreEntry `json:"scores"`
	}{scores})
}

func MakeTick(timeLeft int) []byte {
	return marshalEnvelope(EventTick, struct {
		TimeLeft int `json:"timeLeft"`
	}{timeLeft})
}

func MakeCorrectGuess(playerID, name string, points, total int) []byte {
	return marshalEnvelope(EventCorrectGuess, struct {
		PlayerID string `json:"playerId"`
		Name     string `json:"name"`
		Points   int    `json:"points"`
		Total    int    `json:"total"`
	}{playerID, name, points, total})
}

func MakeCloseGuess(message string) []byte {
	return marshalEnvelope(EventCloseGuess, struct {
		Message string `json:"message"`
	}{message})
}

func MakeTurnEnded(word string, correctGuessers []string, drawerBonus int, players []PlayerInfo) []byte {
	return marshalEnvelope(EventTurnEnded, struct {
		Word            string       `json:"word"`
		CorrectGuessers []string     `json:"correctGuessers"`
		DrawerBonus     int          `json:"drawerBonus"`
		Players         []PlayerInfo `json:"players"`
	}{word, correctGuessers, drawerBonus, players})
}

func MakeGameOver(players []PlayerInfo) []byte {
	return marshalEnvelope(EventGameOver, struct {
		Players []PlayerInfo `json:"players"`
	}{players})
}

func MakeChat(id, name, msg string) []byte {
	return marshalEnvelope(EventChat, ChatItem{ID: id, Name: name, Msg: msg})
}

func MakeHintUpdate(wordHint string) []byte {
	return marshalEnvelope(EventHintUpdate, struct {
		WordHint string `json:"wordHint"`
	}{wordHint})
}

func MakeSettingsUpdated(s SettingsData) []byte {
	return marshalEnvelope(EventSettingsUpdated, s)
}

func MakeError(message string) []byte {
	return marshalEnvelope(EventError, struct {
		Message string `json:"message"`
	}{message})
}

func MakeDraw(lines json.RawMessage) []byte {
	if len(lines) == 0 {
		lines = json.RawMessage("[]")
	}
	return marshalEnvelope(EventDraw, struct {
		Lines json.RawMessage `json:"lines"`
	}{lines})
}

func MakeClearCanvas() []byte {
	return marshalEnvelope(EventClearCanvas, struct{}{})
}
