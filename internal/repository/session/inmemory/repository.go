package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/auxroom/syncd/internal/repository"
)

// subscriberBuffer bounds how far a slow subscriber may lag before updates
// are dropped, mirroring the pub/sub client's behavior.
const subscriberBuffer = 16

// repo keeps session records in process memory. It is the standalone-mode
// stand-in for the redis store: one daemon, no peers, records living only
// as long as the process.
type repo struct {
	records     map[string]repository.PlayerRecord
	subscribers map[string]map[chan repository.PlayerUpdate]struct{}
	mu          sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		records:     make(map[string]repository.PlayerRecord),
		subscribers: make(map[string]map[chan repository.PlayerUpdate]struct{}),
	}
}

func (r *repo) SetPlayerRecord(ctx context.Context, params *repository.SetPlayerRecordParams) error {
	funcName := "session.inmemory.SetPlayerRecord"
	slog.DebugContext(ctx, funcName, "params", params)
	record := repository.PlayerRecord{
		State:          int(params.Snapshot.State),
		SliderPosition: params.Snapshot.SliderPosition,
		UpdatedAt:      params.UpdatedAt,
		Origin:         params.Origin,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[params.SessionID] = record

	update := repository.PlayerUpdate{
		Snapshot:  record.Snapshot(),
		UpdatedAt: record.UpdatedAt,
		Origin:    record.Origin,
	}
	for sub := range r.subscribers[params.SessionID] {
		select {
		case sub <- update:
		default:
			slog.WarnContext(ctx, funcName, "error", "subscriber lagging, update dropped")
		}
	}

	return nil
}

func (r *repo) GetPlayerRecord(ctx context.Context, sessionId string) (repository.PlayerRecord, error) {
	funcName := "session.inmemory.GetPlayerRecord"
	slog.DebugContext(ctx, funcName, "sessionId", sessionId)
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[sessionId]
	if !ok {
		return repository.PlayerRecord{}, repository.ErrRecordNotFound
	}

	return record, nil
}

// SubscribePlayerRecord delivers every record write on the session, the
// caller's own writes included. The channel closes when ctx is done.
func (r *repo) SubscribePlayerRecord(ctx context.Context, sessionId string) (<-chan repository.PlayerUpdate, error) {
	funcName := "session.inmemory.SubscribePlayerRecord"
	slog.DebugContext(ctx, funcName, "sessionId", sessionId)
	updates := make(chan repository.PlayerUpdate, subscriberBuffer)

	r.mu.Lock()
	subs, ok := r.subscribers[sessionId]
	if !ok {
		subs = make(map[chan repository.PlayerUpdate]struct{})
		r.subscribers[sessionId] = subs
	}
	subs[updates] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()

		r.mu.Lock()
		defer r.mu.Unlock()

		subs, ok := r.subscribers[sessionId]
		if !ok {
			return
		}
		if _, ok := subs[updates]; !ok {
			return
		}

		delete(subs, updates)
		if len(subs) == 0 {
			delete(r.subscribers, sessionId)
		}
		close(updates)
	}()

	return updates, nil
}
