package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/auxroom/syncd/internal/service/session"
	"github.com/auxroom/syncd/pkg/validator"
	"github.com/gorilla/websocket"
)

type iSessionEngine interface {
	TogglePlayPause(context.Context) error
	DragSlider(context.Context, float64) error
	SeekForward(context.Context, time.Duration) error
	SeekBackward(context.Context, time.Duration) error
	View() session.View
	Subscribe() chan session.View
	Unsubscribe(chan session.View)
}

type controller struct {
	engine   iSessionEngine
	upgrader websocket.Upgrader
	validate *validator.Validator
}

func NewController(engine iSessionEngine) *controller {
	return &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		engine:   engine,
		validate: validator.NewValidator(),
	}
}
