package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/auxroom/syncd/internal/repository"
)

func (r repo) getPlayerKey(sessionId string) string {
	return "session:" + sessionId + ":player"
}

func (r repo) getPlayerUpdatesChannel(sessionId string) string {
	return r.getPlayerKey(sessionId) + ":updates"
}

func (r repo) SetPlayerRecord(ctx context.Context, params *repository.SetPlayerRecordParams) error {
	funcName := "RedisRepo:SetPlayerRecord"
	slog.DebugContext(ctx, funcName, "params", params)
	record := repository.PlayerRecord{
		State:          int(params.Snapshot.State),
		SliderPosition: params.Snapshot.SliderPosition,
		UpdatedAt:      params.UpdatedAt,
		Origin:         params.Origin,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to set player record: %w", err)
	}

	playerKey := r.getPlayerKey(params.SessionID)
	pipe := r.rc.TxPipeline()
	pipe.HSet(ctx, playerKey, record)
	pipe.Expire(ctx, playerKey, r.recordTTL)
	pipe.Publish(ctx, r.getPlayerUpdatesChannel(params.SessionID), payload)

	if err := r.executePipe(ctx, pipe); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return fmt.Errorf("failed to set player record: %w", err)
	}

	return nil
}

func (r repo) GetPlayerRecord(ctx context.Context, sessionId string) (repository.PlayerRecord, error) {
	funcName := "RedisRepo:GetPlayerRecord"
	slog.DebugContext(ctx, funcName, "sessionId", sessionId)
	playerKey := r.getPlayerKey(sessionId)
	cmd := r.rc.HGetAll(ctx, playerKey)
	if err := cmd.Err(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return repository.PlayerRecord{}, fmt.Errorf("failed to get player record: %w", err)
	}

	if len(cmd.Val()) == 0 {
		return repository.PlayerRecord{}, repository.ErrRecordNotFound
	}

	var record repository.PlayerRecord
	if err := cmd.Scan(&record); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return repository.PlayerRecord{}, fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}

	if err := record.Validate(); err != nil {
		slog.ErrorContext(ctx, funcName, "error", err)
		return repository.PlayerRecord{}, fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)
	}

	r.rc.Expire(ctx, playerKey, r.recordTTL)

	return record, nil
}

// SubscribePlayerRecord streams every record write published on the session,
// the caller's own writes included. The returned channel closes when ctx is
// done or the connection drops.
func (r repo) SubscribePlayerRecord(ctx context.Context, sessionId string) (<-chan repository.PlayerUpdate, error) {
	funcName := "RedisRepo:SubscribePlayerRecord"
	slog.DebugContext(ctx, funcName, "sessionId", sessionId)
	pubsub := r.rc.Subscribe(ctx, r.getPlayerUpdatesChannel(sessionId))
	// Confirm the subscription is on the wire before the caller relies on it.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		slog.ErrorContext(ctx, funcName, "error", err)
		return nil, fmt.Errorf("failed to subscribe to player record: %w", err)
	}

	updates := make(chan repository.PlayerUpdate)
	go func() {
		defer close(updates)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				select {
				case updates <- r.decodeUpdate(ctx, []byte(msg.Payload)):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return updates, nil
}

func (r repo) decodeUpdate(ctx context.Context, payload []byte) repository.PlayerUpdate {
	var record repository.PlayerRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		slog.DebugContext(ctx, "RedisRepo:decodeUpdate", "error", err)
		return repository.PlayerUpdate{Err: fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)}
	}

	if err := record.Validate(); err != nil {
		slog.DebugContext(ctx, "RedisRepo:decodeUpdate", "error", err)
		return repository.PlayerUpdate{Err: fmt.Errorf("%w: %v", repository.ErrMalformedRecord, err)}
	}

	return repository.PlayerUpdate{
		Snapshot:  record.Snapshot(),
		UpdatedAt: record.UpdatedAt,
		Origin:    record.Origin,
	}
}
