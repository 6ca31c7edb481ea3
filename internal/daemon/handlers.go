package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runger/burrow/internal/action"
	"github.com/runger/burrow/internal/index"
	"github.com/runger/burrow/internal/result"
	"github.com/runger/burrow/internal/storage"
)

func (s *Server) handle(ctx context.Context, req *Request) Response {
	// Chat dispatch waits on a model round trip and gets a longer budget.
	deadline := requestDeadline
	if req.Method == MethodDispatch {
		deadline = dispatchDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	switch req.Method {
	case MethodSearch:
		return s.handleSearch(ctx, req)
	case MethodDispatch:
		return s.handleDispatch(ctx, req)
	case MethodRecordLaunch:
		return s.handleRecordLaunch(ctx, req)
	case MethodProgress:
		return s.handleProgress()
	case MethodHealth:
		return s.handleHealth(ctx)
	case MethodReindex:
		return s.startIndexRun(true)
	case MethodUpdate:
		return s.startIndexRun(false)
	case MethodHistory:
		return s.handleHistory(ctx, req)
	case MethodRemoveHistory:
		return s.handleRemoveHistory(ctx, req)
	case MethodClearHistory:
		return s.handleClearHistory(ctx)
	case MethodStatus:
		return s.handleStatus(ctx)
	case MethodShutdown:
		return Response{Message: "shutting down"}
	default:
		return errorResponse(fmt.Errorf("unknown method %q", req.Method))
	}
}

func (s *Server) handleSearch(ctx context.Context, req *Request) Response {
	results, err := s.engine.Search(ctx, req.Query)
	if err != nil {
		return errorResponse(err)
	}
	if results == nil {
		results = []result.SearchResult{}
	}
	return Response{Results: results}
}

func (s *Server) handleDispatch(ctx context.Context, req *Request) Response {
	if req.Result == nil && !req.Session.Active {
		return errorResponse(errors.New("dispatch requires a result"))
	}
	dreq := action.Request{
		Modifier:  result.Modifier(req.Modifier),
		Query:     req.Query,
		Secondary: req.Secondary,
	}
	if req.Result != nil {
		dreq.Result = *req.Result
	}
	state, outcome, err := s.dispatcher.Dispatch(ctx, req.Session, dreq)
	if err != nil {
		// The session still advances on failure so the caller never sticks
		// in secondary-input mode.
		return Response{Error: err.Error(), Session: &state}
	}
	return Response{Outcome: &outcome, Session: &state}
}

func (s *Server) handleRecordLaunch(ctx context.Context, req *Request) Response {
	if req.Launch == nil {
		return errorResponse(errors.New("record_launch requires a launch payload"))
	}
	err := s.store.RecordLaunch(ctx, &storage.Launch{
		ID:          req.Launch.ID,
		Name:        req.Launch.Name,
		Exec:        req.Launch.Exec,
		Icon:        req.Launch.Icon,
		Description: req.Launch.Description,
	})
	if err != nil {
		return errorResponse(err)
	}
	return Response{}
}

func (s *Server) handleProgress() Response {
	if s.indexer == nil {
		return errorResponse(errors.New("indexer is not configured"))
	}
	p := s.indexer.Progress()
	return Response{Progress: &p}
}

func (s *Server) handleHealth(ctx context.Context) Response {
	health := map[string]bool{"daemon": true}
	if s.healthFn != nil {
		for k, v := range s.healthFn(ctx) {
			health[k] = v
		}
	}
	return Response{Health: health}
}

// startIndexRun kicks off a full or incremental run in the background.
// The response reports acceptance, not completion; progress is polled.
func (s *Server) startIndexRun(full bool) Response {
	if s.indexer == nil {
		return errorResponse(errors.New("indexer is not configured"))
	}
	mode := "incremental update"
	run := s.indexer.Incremental
	if full {
		mode = "full reindex"
		run = s.indexer.Full
	}

	// Probe the single-flight gate synchronously so a concurrent run is
	// reported to the caller instead of silently dropped.
	started := make(chan error, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, err := run(s.baseCtx)
		if errors.Is(err, index.ErrAlreadyRunning) {
			started <- err
			return
		}
		started <- nil
		if err != nil {
			s.logger.Warn("index run failed", "mode", mode, "err", err)
		}
	}()

	select {
	case err := <-started:
		if err != nil {
			return errorResponse(err)
		}
	case <-time.After(100 * time.Millisecond):
		// The run is past the gate and working.
	}
	return Response{Message: mode + " started"}
}

func (s *Server) handleHistory(ctx context.Context, req *Request) Response {
	limit := req.Limit
	if limit <= 0 {
		limit = s.historyCap
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.store.Frecent(ctx, limit)
	if err != nil {
		return errorResponse(err)
	}
	entries := make([]HistoryEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, HistoryEntry{
			ID:         r.ID,
			Name:       r.Name,
			Count:      r.Count,
			LastUsedMs: r.LastUsedMs,
		})
	}
	return Response{History: entries}
}

func (s *Server) handleRemoveHistory(ctx context.Context, req *Request) Response {
	if req.ID == "" {
		return errorResponse(errors.New("remove_history requires an id"))
	}
	removed, err := s.store.RemoveLaunch(ctx, req.ID)
	if err != nil {
		return errorResponse(err)
	}
	if !removed {
		return errorResponse(fmt.Errorf("no history entry %q", req.ID))
	}
	return Response{Message: "removed " + req.ID}
}

func (s *Server) handleClearHistory(ctx context.Context) Response {
	n, err := s.store.ClearLaunches(ctx)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Message: fmt.Sprintf("cleared %d history entries", n)}
}

func (s *Server) handleStatus(ctx context.Context) Response {
	st := Status{
		Version:    Version,
		PID:        processID(),
		UptimeSecs: int64(time.Since(s.startTime).Seconds()),
	}
	if n, err := s.store.LaunchCount(ctx); err == nil {
		st.HistoryCount = n
	}
	if n, err := s.store.VectorCount(ctx); err == nil {
		st.VectorCount = n
	}
	if s.indexer != nil {
		st.IndexerPhase = s.indexer.Progress().Phase
	}
	return Response{Status: &st}
}

// RunSetting implements action.SettingsRunner: it executes the named
// settings action selected from the ":" provider.
func (s *Server) RunSetting(ctx context.Context, name string) (string, error) {
	switch name {
	case "reindex":
		resp := s.startIndexRun(true)
		if resp.Error != "" {
			return "", errors.New(resp.Error)
		}
		return resp.Message, nil
	case "update":
		resp := s.startIndexRun(false)
		if resp.Error != "" {
			return "", errors.New(resp.Error)
		}
		return resp.Message, nil
	case "config":
		path := s.paths.ConfigFile()
		if s.exec != nil {
			if err := s.exec.Open(ctx, path); err != nil {
				return "", err
			}
		}
		return path, nil
	case "stats":
		launches, err := s.store.LaunchCount(ctx)
		if err != nil {
			return "", err
		}
		vectors, err := s.store.VectorCount(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d history entries, %d indexed files", launches, vectors), nil
	case "progress":
		if s.indexer == nil {
			return "", errors.New("indexer is not configured")
		}
		p := s.indexer.Progress()
		if !p.Running {
			if p.LastResult != "" {
				return p.LastResult, nil
			}
			return "idle", nil
		}
		return fmt.Sprintf("%s: %d/%d", p.Phase, p.Processed, p.Total), nil
	case "clear-history":
		resp := s.handleClearHistory(ctx)
		if resp.Error != "" {
			return "", errors.New(resp.Error)
		}
		return resp.Message, nil
	default:
		return "", fmt.Errorf("unknown settings action %q", name)
	}
}
