package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"
	"time"

	goaway "github.com/TwiN/go-away"
)

// GameLoop is the room actor: the only goroutine allowed to touch room
// state. Player events, join/reconnect requests, disconnect notices and
// timer ticks all drain through here in order, so a guess can never race a
// turn timeout and credit against a stale word.
func (r *Room) GameLoop() {
	defer func() {
		if rec := recover(); rec != nil {
			// A corrupt room is a bug; tear it down instead of wedging every
			// player in it.
			r.log.Error().Interface("panic", rec).Msg("room crashed")
			r.broadcast(MakeError("the room closed unexpectedly"))
			for _, p := range r.players {
				p.Detach()
			}
			r.releaseFromReg(r.code)
		}
	}()

	r.log.Info().Msg("room started")
	r.broadcast(MakePlayerJoined(r.rosterInfos()))

	for {
		select {
		case <-r.done:
			r.log.Info().Msg("room closed")
			for _, p := range r.players {
				p.Detach()
			}
			return
		case ef := <-r.inbox:
			r.handlePacket(ef)
		case jr := <-r.joins:
			r.handleJoin(jr)
		case rr := <-r.reconnects:
			r.handleReconnect(rr)
		case dn := <-r.drops:
			r.handleDisconnect(dn)
		case now := <-r.ticks:
			r.handleTick(now)
		case <-r.pings:
			for _, p := range r.players {
				p.Ping()
			}
		}
	}
}

func (r *Room) handlePacket(ef envelopeFrom) {
	p := ef.from
	if p == nil || r.indexOf(p) < 0 {
		return
	}
	// Like the disconnect guard: input still in flight from a superseded
	// transport must not act as the reconnected player.
	if ef.connID != p.id {
		return
	}

	switch ef.env.Event {
	case EventStartGame:
		r.handleStartGame(p)
	case EventUpdateSettings:
		var d UpdateSettingsData
		if err := json.Unmarshal(ef.env.Data, &d); err != nil {
			p.Send(MakeError("malformed settings"))
			return
		}
		r.handleUpdateSettings(p, d)
	case EventWordSelected:
		var d WordSelectedData
		if err := json.Unmarshal(ef.env.Data, &d); err != nil {
			return
		}
		r.handleWordSelected(p, d.Word)
	case EventGuess:
		var d GuessData
		if err := json.Unmarshal(ef.env.Data, &d); err != nil {
			return
		}
		r.handleGuess(p, d.Guess)
	case EventChat:
		var d ChatInData
		if err := json.Unmarshal(ef.env.Data, &d); err != nil {
			return
		}
		r.handleChat(p, d.Msg)
	case EventDraw:
		var d DrawInData
		if err := json.Unmarshal(ef.env.Data, &d); err != nil {
			return
		}
		r.handleDraw(p, d.Lines)
	case EventClearCanvas:
		r.handleClearCanvas(p)
	case EventLeaveRoom:
		r.removePlayer(p, "left")
	case EventReturnToLobby:
		r.handleReturnToLobby(p)
	default:
		p.Send(MakeError("unknown event: " + ef.env.Event))
	}
}

// --- membership ---

func (r *Room) handleJoin(jr joinRequest) {
	p := jr.player
	if len(r.players) >= r.settings.MaxPlayers {
		jr.reply <- ErrRoomFull
		return
	}
	// Mid-game joiners spectate until the next round's rotation picks them up.
	if r.phase != PhaseLobby && r.phase != PhaseGameOver {
		p.spectator = true
	}
	r.players = append(r.players, p)
	r.sessions.Touch(p.sessionID, r.code)
	jr.reply <- nil

	r.log.Info().Str("player", p.name).Int("count", len(r.players)).Msg("player joined")
	r.broadcast(MakePlayerJoined(r.rosterInfos()))
	p.Send(MakeSettingsUpdated(r.settings.Wire()))
	r.catchUp(p, time.Now())
}

// catchUp resynchronizes a late joiner with whatever is already on screen
// for everyone else.
func (r *Room) catchUp(p *Player, now time.Time) {
	switch r.phase {
	case PhaseWordSelection, PhaseTurnResults:
		// The scoreboard view doubles as "a game is running, hold on" for
		// the gap between turns.
		p.Send(MakeDrawerSelecting(r.scoreEntries()))
	case PhaseDrawing:
		elapsed := now.Sub(r.turnStart)
		hint := HintAt(r.currentWord, elapsed, r.settings.drawTime())
		p.Send(MakeGameStarted(r.drawerID(), hint, r.secondsLeft(now), r.round, r.settings.Rounds))
		if len(r.strokes) > 0 {
			p.Send(MakeDraw(r.strokes))
		}
	}
}

func (r *Room) handleReconnect(rr reconnectRequest) {
	p := r.findBySession(rr.sessionID)
	if p == nil {
		rr.reply <- reconnectReply{err: ErrReconnectionFailed}
		return
	}

	// Idempotent: a repeat reconnect just swaps in the newest transport, it
	// never duplicates the roster slot. Closing the old socket makes its
	// read loop exit; the drop notice it then files carries a stale conn id
	// and is ignored.
	p.Detach()
	if p.session != nil {
		p.session.Close("superseded by a newer connection")
	}
	p.id = rr.connID
	p.Attach(rr.transport)
	p.graceDeadline = time.Time{}

	now := time.Now()
	p.Send(MakeReconnectionSuccess(r.code, p.sessionID, p.sessionID == r.hostSessionID, p.Info(), r.buildSnapshot(p, now)))
	r.broadcast(MakePlayerJoined(r.rosterInfos()))
	r.log.Info().Str("player", p.name).Msg("player reconnected")
	rr.reply <- reconnectReply{player: p}
}

func (r *Room) handleDisconnect(dn disconnectNotice) {
	p := dn.player
	if r.indexOf(p) < 0 {
		return
	}
	// A notice from a transport that was already superseded by a reconnect
	// must not knock the player back out.
	if p.id != dn.connID {
		return
	}
	p.Detach()
	p.graceDeadline = time.Now().Add(r.grace)
	r.log.Info().Str("player", p.name).Dur("grace", r.grace).Msg("player disconnected")
	r.broadcast(MakePlayerJoined(r.rosterInfos()))

	if r.midTurn() && p.sessionID == r.drawerSessionID {
		// Drawer gone: the turn cannot continue, end it as a forfeit.
		r.endTurn(time.Now(), true)
		return
	}
	if r.phase == PhaseDrawing && r.allEligibleGuessed() {
		r.endTurn(time.Now(), false)
	}
}

func (r *Room) removePlayer(p *Player, reason string) {
	idx := r.indexOf(p)
	if idx < 0 {
		return
	}
	wasHost := p.sessionID == r.hostSessionID
	wasDrawer := r.midTurn() && p.sessionID == r.drawerSessionID

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	p.Detach()
	if p.session != nil {
		p.session.Close("")
	}

	r.log.Info().Str("player", p.name).Str("reason", reason).Int("count", len(r.players)).Msg("player removed")
	r.broadcast(MakePlayerLeft(p.name, p.id))
	r.broadcast(MakePlayerJoined(r.rosterInfos()))

	if len(r.players) == 0 {
		r.releaseFromReg(r.code)
		return
	}

	if wasHost {
		r.transferHost()
	}
	if wasDrawer {
		r.endTurn(time.Now(), true)
	} else if r.phase == PhaseDrawing && r.allEligibleGuessed() {
		r.endTurn(time.Now(), false)
	}
}

// transferHost promotes the next-longest-connected player: roster order is
// insertion order, so the first connected entry is the oldest survivor.
func (r *Room) transferHost() {
	for _, p := range r.players {
		if p.connected {
			r.hostSessionID = p.sessionID
			p.Send(MakeHostTransferred(true))
			r.log.Info().Str("player", p.name).Msg("host transferred")
			return
		}
	}
	// Everyone is disconnected; hand it to whoever reconnects first by
	// leaving it with the head of the roster.
	r.hostSessionID = r.players[0].sessionID
}

// --- game flow ---

func (r *Room) handleStartGame(p *Player) {
	if p.sessionID != r.hostSessionID {
		p.Send(MakeError("only the host can start the game"))
		return
	}
	if r.phase != PhaseLobby {
		p.Send(MakeError("game already in progress"))
		return
	}
	if r.connectedCount() < 2 {
		p.Send(MakeError("need at least 2 players to start"))
		return
	}
	r.round = 1
	r.drawnThisRound = make(map[string]bool)
	for _, pl := range r.players {
		pl.spectator = false
	}
	r.log.Info().Int("players", len(r.players)).Msg("game started")
	r.startTurn(time.Now())
}

func (r *Room) startTurn(now time.Time) {
	if r.connectedCount() < 2 {
		r.finishGame()
		return
	}

	drawer := r.nextDrawer()
	if drawer == nil {
		// Rotation exhausted: round complete.
		r.round++
		r.drawnThisRound = make(map[string]bool)
		for _, p := range r.players {
			p.spectator = false
		}
		if r.round > r.settings.Rounds {
			r.finishGame()
			return
		}
		if drawer = r.nextDrawer(); drawer == nil {
			r.finishGame()
			return
		}
	}

	r.turn++
	r.phase = PhaseWordSelection
	r.drawerSessionID = drawer.sessionID
	r.drawnThisRound[drawer.sessionID] = true
	r.currentWord = ""
	r.correctGuessers = make(map[string]bool)
	r.scoreIncrements = make(map[string]int)
	r.strokes = nil
	r.revealed = 0
	r.wordChoices = r.words.Offer(r.settings.WordCount, r.settings.CustomWords, r.settings.CustomWordProbability)

	scores := r.scoreEntries()
	drawer.Send(MakeSelectWord(r.wordChoices, wordSelectionSeconds, scores))
	r.broadcastExcept(drawer, MakeDrawerSelecting(scores))
	r.nextTick = now.Add(wordSelectionSeconds * time.Second)
	r.log.Debug().Int("round", r.round).Int("turn", r.turn).Str("drawer", drawer.name).Msg("word selection")
}

// nextDrawer walks the roster in insertion order for a connected,
// non-spectator player who hasn't drawn this round yet.
func (r *Room) nextDrawer() *Player {
	for _, p := range r.players {
		if p.connected && !p.spectator && !r.drawnThisRound[p.sessionID] {
			return p
		}
	}
	return nil
}

func (r *Room) handleWordSelected(p *Player, word string) {
	if r.phase != PhaseWordSelection || p.sessionID != r.drawerSessionID {
		p.Send(MakeError("it is not your turn to pick a word"))
		return
	}
	for _, choice := range r.wordChoices {
		if choice == word {
			r.beginDrawing(time.Now(), word)
			return
		}
	}
	p.Send(MakeError("that word was not offered"))
}

func (r *Room) beginDrawing(now time.Time, word string) {
	drawer := r.drawer()
	if drawer == nil {
		r.endTurn(now, true)
		return
	}
	r.phase = PhaseDrawing
	r.currentWord = word
	r.turnStart = now
	r.turnDeadline = now.Add(r.settings.drawTime())
	r.nextTick = r.turnDeadline

	hint := HintAt(word, 0, r.settings.drawTime())
	r.broadcast(MakeGameStarted(drawer.id, hint, r.settings.DrawTimeSec, r.round, r.settings.Rounds))
	drawer.Send(MakeYourWord(word))
	r.log.Debug().Str("drawer", drawer.name).Msg("drawing started")
}

func (r *Room) endTurn(now time.Time, drawerForfeited bool) {
	if !r.midTurn() {
		return
	}
	word := r.currentWord
	r.phase = PhaseTurnResults

	var correctNames []string
	var awarded []int
	for sid := range r.correctGuessers {
		if p := r.findBySession(sid); p != nil {
			correctNames = append(correctNames, p.name)
		}
		awarded = append(awarded, r.scoreIncrements[sid])
	}

	bonus := 0
	if !drawerForfeited {
		bonus = DrawerBonus(awarded)
		if drawer := r.drawer(); drawer != nil && bonus > 0 {
			drawer.score += bonus
			r.scoreIncrements[drawer.sessionID] += bonus
		}
	}

	r.broadcast(MakeTurnEnded(word, correctNames, bonus, r.rosterWithRoundPoints()))
	r.nextTick = now.Add(turnResultsSeconds * time.Second)
	r.log.Debug().Str("word", word).Int("guessers", len(correctNames)).Int("bonus", bonus).Bool("forfeit", drawerForfeited).Msg("turn ended")
}

func (r *Room) finishGame() {
	r.phase = PhaseGameOver
	r.drawerSessionID = ""
	r.currentWord = ""
	if r.round > r.settings.Rounds {
		r.round = r.settings.Rounds
	}

	final := r.rosterInfos()
	sort.SliceStable(final, func(i, j int) bool { return final[i].Score > final[j].Score })
	r.broadcast(MakeGameOver(final))

	for _, p := range r.players {
		r.sessions.MarkEnded(p.sessionID)
	}
	r.log.Info().Int("rounds", r.settings.Rounds).Msg("game over")
}

func (r *Room) handleReturnToLobby(p *Player) {
	if p.sessionID != r.hostSessionID {
		p.Send(MakeError("only the host can return the room to the lobby"))
		return
	}
	if r.phase != PhaseGameOver {
		p.Send(MakeError("the game is still running"))
		return
	}
	r.phase = PhaseLobby
	r.round = 0
	r.turn = 0
	r.drawnThisRound = make(map[string]bool)
	r.correctGuessers = make(map[string]bool)
	r.scoreIncrements = make(map[string]int)
	r.strokes = nil
	for _, pl := range r.players {
		pl.score = 0
		pl.spectator = false
		// The old sessions were marked ended at game over; give every
		// returning player a fresh one under the same id.
		r.sessions.Create(pl.sessionID, pl.name, pl.avatar)
		r.sessions.Touch(pl.sessionID, r.code)
	}
	r.broadcast(MakePlayerJoined(r.rosterInfos()))
	r.broadcast(MakeSettingsUpdated(r.settings.Wire()))
	r.log.Info().Msg("returned to lobby")
}

func (r *Room) handleUpdateSettings(p *Player, d UpdateSettingsData) {
	if p.sessionID != r.hostSessionID {
		p.Send(MakeError("only the host can change settings"))
		return
	}
	if r.phase == PhaseWordSelection || r.phase == PhaseDrawing {
		p.Send(MakeError("settings cannot change mid-turn"))
		return
	}
	s := SettingsFromWire(d.Settings).Clamped()
	if s.MaxPlayers < len(r.players) {
		s.MaxPlayers = len(r.players)
	}
	r.settings = s
	r.broadcast(MakeSettingsUpdated(s.Wire()))
	r.log.Debug().Interface("settings", s).Msg("settings updated")
}

// --- gameplay ---

func (r *Room) handleGuess(p *Player, guess string) {
	if r.phase != PhaseDrawing || p.spectator {
		r.relayChat(p, guess)
		return
	}
	if p.sessionID == r.drawerSessionID {
		p.Send(MakeError("the drawer cannot guess"))
		return
	}
	if r.correctGuessers[p.sessionID] {
		// Post-guess chatter only reaches the drawer and other correct
		// guessers; the word must not leak to people still playing.
		r.relayToGuessed(p, guess)
		return
	}
	if goaway.IsProfane(guess) {
		p.Send(MakeError("message blocked: inappropriate language"))
		return
	}

	now := time.Now()
	switch {
	case IsCorrectGuess(guess, r.currentWord):
		points := GuesserPoints(r.turnDeadline.Sub(now), r.settings.drawTime())
		p.score += points
		r.correctGuessers[p.sessionID] = true
		r.scoreIncrements[p.sessionID] = points
		r.broadcast(MakeCorrectGuess(p.id, p.name, points, p.score))
		r.log.Debug().Str("player", p.name).Int("points", points).Msg("correct guess")
		if r.allEligibleGuessed() {
			r.endTurn(now, false)
		}
	case IsCloseGuess(guess, r.currentWord):
		p.Send(MakeCloseGuess(fmt.Sprintf("'%s' is close!", guess)))
	default:
		r.relayChat(p, guess)
	}
}

// handleChat routes a plain chat line. While a word is in play, lines from
// the drawer and from players who already guessed stay among themselves;
// the word must not leak to people still playing, whichever event carried it.
func (r *Room) handleChat(p *Player, msg string) {
	if r.phase == PhaseDrawing && !p.spectator &&
		(p.sessionID == r.drawerSessionID || r.correctGuessers[p.sessionID]) {
		r.relayToGuessed(p, msg)
		return
	}
	r.relayChat(p, msg)
}

func (r *Room) relayChat(p *Player, msg string) {
	if msg == "" {
		return
	}
	if goaway.IsProfane(msg) {
		p.Send(MakeError("message blocked: inappropriate language"))
		return
	}
	r.broadcast(MakeChat(p.id, p.name, msg))
	r.appendChat(ChatItem{ID: p.id, Name: p.name, Msg: msg})
}

func (r *Room) relayToGuessed(p *Player, msg string) {
	if msg == "" || goaway.IsProfane(msg) {
		return
	}
	data := MakeChat(p.id, p.name, msg)
	for _, other := range r.players {
		if other.sessionID == r.drawerSessionID || r.correctGuessers[other.sessionID] {
			other.Send(data)
		}
	}
}

func (r *Room) handleDraw(p *Player, lines json.RawMessage) {
	if r.phase != PhaseDrawing || p.sessionID != r.drawerSessionID {
		p.Send(MakeError("you are not the drawer"))
		return
	}
	r.strokes = lines
	r.broadcastExcept(p, MakeDraw(lines))
}

func (r *Room) handleClearCanvas(p *Player) {
	if r.phase != PhaseDrawing || p.sessionID != r.drawerSessionID {
		p.Send(MakeError("you are not the drawer"))
		return
	}
	r.strokes = nil
	r.broadcastExcept(p, MakeClearCanvas())
}

// --- timing ---

func (r *Room) handleTick(now time.Time) {
	r.sweepGrace(now)

	switch r.phase {
	case PhaseWordSelection:
		if !now.Before(r.nextTick) {
			// Drawer never chose; pick one of the offered words at random.
			if len(r.wordChoices) == 0 {
				r.endTurn(now, true)
				return
			}
			word := r.wordChoices[rand.Intn(len(r.wordChoices))]
			r.log.Debug().Str("word", word).Msg("word auto-selected")
			r.beginDrawing(now, word)
		}
	case PhaseDrawing:
		r.broadcast(MakeTick(r.secondsLeft(now)))
		total := r.settings.drawTime()
		if k := RevealCount(r.currentWord, now.Sub(r.turnStart), total); k > r.revealed {
			r.revealed = k
			r.broadcast(MakeHintUpdate(HintAt(r.currentWord, now.Sub(r.turnStart), total)))
		}
		if !now.Before(r.turnDeadline) {
			r.endTurn(now, false)
		}
	case PhaseTurnResults:
		if !now.Before(r.nextTick) {
			r.startTurn(now)
		}
	}
}

func (r *Room) sweepGrace(now time.Time) {
	var expired []*Player
	for _, p := range r.players {
		if !p.connected && !p.graceDeadline.IsZero() && now.After(p.graceDeadline) {
			expired = append(expired, p)
		}
	}
	for _, p := range expired {
		r.removePlayer(p, "reconnection grace expired")
	}
}

func (r *Room) secondsLeft(now time.Time) int {
	left := int(r.turnDeadline.Sub(now).Round(time.Second) / time.Second)
	if left < 0 {
		left = 0
	}
	return left
}

// --- snapshots & helpers ---

func (r *Room) buildSnapshot(p *Player, now time.Time) GameStateSnapshot {
	started := r.midTurn() || r.phase == PhaseTurnResults
	isDrawer := started && p.sessionID == r.drawerSessionID

	snap := GameStateSnapshot{
		GameStarted:    started,
		Round:          r.round,
		MaxRounds:      r.settings.Rounds,
		IsYourTurn:     isDrawer,
		Players:        r.rosterInfos(),
		RecentChat:     append([]ChatItem(nil), r.chatLog...),
		CurrentDrawing: r.strokes,
	}
	if snap.CurrentDrawing == nil {
		snap.CurrentDrawing = json.RawMessage("[]")
	}
	if r.phase == PhaseDrawing {
		snap.TimeLeft = r.secondsLeft(now)
		snap.WordHint = HintAt(r.currentWord, now.Sub(r.turnStart), r.settings.drawTime())
	}
	if isDrawer {
		snap.CurrentWord = r.currentWord
	}
	return snap
}

func (r *Room) midTurn() bool {
	return r.phase == PhaseWordSelection || r.phase == PhaseDrawing
}

func (r *Room) indexOf(p *Player) int {
	for i, q := range r.players {
		if q == p {
			return i
		}
	}
	return -1
}

func (r *Room) findBySession(sessionID string) *Player {
	for _, p := range r.players {
		if p.sessionID == sessionID {
			return p
		}
	}
	return nil
}

func (r *Room) drawer() *Player {
	if r.drawerSessionID == "" {
		return nil
	}
	return r.findBySession(r.drawerSessionID)
}

func (r *Room) drawerID() string {
	if d := r.drawer(); d != nil {
		return d.id
	}
	return ""
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.players {
		if p.connected {
			n++
		}
	}
	return n
}

// allEligibleGuessed reports whether every connected non-spectator
// non-drawer player has the word. With nobody left who could guess, the
// turn has nothing to wait for.
func (r *Room) allEligibleGuessed() bool {
	for _, p := range r.players {
		if !p.connected || p.spectator || p.sessionID == r.drawerSessionID {
			continue
		}
		if !r.correctGuessers[p.sessionID] {
			return false
		}
	}
	return true
}

func (r *Room) rosterInfos() []PlayerInfo {
	infos := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		info := p.Info()
		info.IsDrawer = r.midTurn() && p.sessionID == r.drawerSessionID
		infos = append(infos, info)
	}
	return infos
}

func (r *Room) rosterWithRoundPoints() []PlayerInfo {
	infos := r.rosterInfos()
	for i := range infos {
		if p := r.findByID(infos[i].ID); p != nil {
			infos[i].RoundPoints = r.scoreIncrements[p.sessionID]
		}
	}
	return infos
}

func (r *Room) findByID(id string) *Player {
	for _, p := range r.players {
		if p.id == id {
			return p
		}
	}
	return nil
}

func (r *Room) scoreEntries() []ScoreEntry {
	entries := make([]ScoreEntry, 0, len(r.players))
	for _, p := range r.players {
		entries = append(entries, ScoreEntry{Name: p.name, Score: p.score, Avatar: p.avatar})
	}
	return entries
}

func (r *Room) appendChat(item ChatItem) {
	r.chatLog = append(r.chatLog, item)
	if len(r.chatLog) > chatLogCap {
		r.chatLog = r.chatLog[len(r.chatLog)-chatLogCap:]
	}
}

func (r *Room) broadcast(data []byte) {
	for _, p := range r.players {
		p.Send(data)
	}
}

func (r *Room) broadcastExcept(skip *Player, data []byte) {
	for _, p := range r.players {
		if p != skip {
			p.Send(data)
		}
	}
}
