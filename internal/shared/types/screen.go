package types

// ScreenID identifies a top-level UI panel.
type ScreenID string

const (
	ScreenLogin        ScreenID = "login"
	ScreenRegister     ScreenID = "register"
	ScreenDashboard    ScreenID = "dashboard"
	ScreenWhiteboard   ScreenID = "whiteboard"
	ScreenGames        ScreenID = "games"
	ScreenPresentation ScreenID = "presentation"
	ScreenProfile      ScreenID = "profile"
	ScreenHelp         ScreenID = "help"
)

// AllScreens lists every known screen in navigation order.
func AllScreens() []ScreenID {
	return []ScreenID{
		ScreenLogin,
		ScreenRegister,
		ScreenDashboard,
		ScreenWhiteboard,
		ScreenGames,
		ScreenPresentation,
		ScreenProfile,
		ScreenHelp,
	}
}

// Valid reports whether id names a known screen.
func (s ScreenID) Valid() bool {
	for _, id := range AllScreens() {
		if s == id {
			return true
		}
	}
	return false
}

// GameID identifies a mini-game within the games screen.
type GameID string

const (
	GameRPS        GameID = "rps"
	GameBasketball GameID = "basketball"
	GameSnake      GameID = "snake"
	GameFruit      GameID = "fruit"
	GameDino       GameID = "dino"
	GamePong       GameID = "pong"
)

// Valid reports whether id names a known game.
func (g GameID) Valid() bool {
	switch g {
	case GameRPS, GameBasketball, GameSnake, GameFruit, GameDino, GamePong:
		return true
	}
	return false
}

// BackendRendered reports whether the game is drawn by the backend and
// consumed as an MJPEG feed, as opposed to being driven locally from the
// gesture stream.
func (g GameID) BackendRendered() bool {
	switch g {
	case GameSnake, GameFruit, GameDino, GamePong:
		return true
	}
	return false
}
