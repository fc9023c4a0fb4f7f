package controller

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/auxroom/syncd/pkg/rest"
)

func (c controller) getPlayer(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.engine.View()})
}

func (c controller) postToggle(w http.ResponseWriter, r *http.Request) {
	if err := c.engine.TogglePlayPause(r.Context()); err != nil {
		slog.InfoContext(r.Context(), "postToggle", "toggle err", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.engine.View()})
}

func (c controller) postDrag(w http.ResponseWriter, r *http.Request) {
	var req SliderDragInput

	if err := rest.ReadJSON(r, &req); err != nil {
		slog.InfoContext(r.Context(), "postDrag", "read json err", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		slog.InfoContext(r.Context(), "postDrag", "validate err", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	if err := c.engine.DragSlider(r.Context(), *req.Value); err != nil {
		slog.InfoContext(r.Context(), "postDrag", "drag err", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.engine.View()})
}

func (c controller) postSeekForward(w http.ResponseWriter, r *http.Request) {
	var req SeekForwardInput

	if err := rest.ReadJSON(r, &req); err != nil {
		slog.InfoContext(r.Context(), "postSeekForward", "read json err", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		slog.InfoContext(r.Context(), "postSeekForward", "validate err", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	by := time.Duration(req.Seconds * float64(time.Second))
	if err := c.engine.SeekForward(r.Context(), by); err != nil {
		slog.InfoContext(r.Context(), "postSeekForward", "seek err", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.engine.View()})
}

func (c controller) postSeekBackward(w http.ResponseWriter, r *http.Request) {
	var req SeekBackwardInput

	if err := rest.ReadJSON(r, &req); err != nil {
		slog.InfoContext(r.Context(), "postSeekBackward", "read json err", err)
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return
	}

	if validationErrors, ok := c.validate.Validate(req); !ok {
		slog.InfoContext(r.Context(), "postSeekBackward", "validate err", validationErrors)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return
	}

	by := time.Duration(req.Seconds * float64(time.Second))
	if err := c.engine.SeekBackward(r.Context(), by); err != nil {
		slog.InfoContext(r.Context(), "postSeekBackward", "seek err", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": err.Error()})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": c.engine.View()})
}
