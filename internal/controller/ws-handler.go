package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/auxroom/syncd/pkg/validator"
	"github.com/auxroom/syncd/pkg/wsrouter"
)

type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func errorOutput(err error) Output {
	return Output{
		Type: "ERROR",
		Payload: map[string]any{
			"message": err.Error(),
		},
	}
}

func validationErrorOutput(validationErrors []validator.ValidationError) Output {
	return Output{
		Type: "VALIDATION_ERROR",
		Payload: map[string]any{
			"errors": validationErrors,
		},
	}
}

// sendOutput hands the output to the connection's writer goroutine. Handlers
// never write to the connection directly.
func (c controller) sendOutput(ctx context.Context, out chan<- Output, output Output) {
	select {
	case out <- output:
	case <-ctx.Done():
	}
}

func (c controller) handleAlive(_ context.Context, _ chan<- Output, _ json.RawMessage) {
}

func (c controller) handleUnknown(ctx context.Context, out chan<- Output, _ json.RawMessage) {
	c.sendOutput(ctx, out, errorOutput(fmt.Errorf("unknown message type %q", wsrouter.GetMessageTypeFromCtx(ctx))))
}

func (c controller) handleToggle(ctx context.Context, out chan<- Output, _ json.RawMessage) {
	if err := c.engine.TogglePlayPause(ctx); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to toggle playback: %w", err)))
	}
}

type SliderDragInput struct {
	Value *float64 `json:"value" validate:"required,gte=0,lte=1"`
}

func (c controller) handleSliderDrag(ctx context.Context, out chan<- Output, payload json.RawMessage) {
	var input SliderDragInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to unmarshal payload: %w", err)))
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.sendOutput(ctx, out, validationErrorOutput(validationErrors))
		return
	}

	if err := c.engine.DragSlider(ctx, *input.Value); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to drag slider: %w", err)))
	}
}

type SeekForwardInput struct {
	Seconds float64 `json:"seconds" validate:"required,gt=0"`
}

func (c controller) handleSeekForward(ctx context.Context, out chan<- Output, payload json.RawMessage) {
	var input SeekForwardInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to unmarshal payload: %w", err)))
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.sendOutput(ctx, out, validationErrorOutput(validationErrors))
		return
	}

	by := time.Duration(input.Seconds * float64(time.Second))
	if err := c.engine.SeekForward(ctx, by); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to seek forward: %w", err)))
	}
}

type SeekBackwardInput struct {
	Seconds float64 `json:"seconds" validate:"required,gt=0"`
}

func (c controller) handleSeekBackward(ctx context.Context, out chan<- Output, payload json.RawMessage) {
	var input SeekBackwardInput
	if err := json.Unmarshal(payload, &input); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to unmarshal payload: %w", err)))
		return
	}

	if validationErrors, ok := c.validate.Validate(input); !ok {
		c.sendOutput(ctx, out, validationErrorOutput(validationErrors))
		return
	}

	by := time.Duration(input.Seconds * float64(time.Second))
	if err := c.engine.SeekBackward(ctx, by); err != nil {
		c.sendOutput(ctx, out, errorOutput(fmt.Errorf("failed to seek backward: %w", err)))
	}
}
