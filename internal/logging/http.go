package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultBatchSize     = 100
	defaultFlushInterval = 5 * time.Second
)

// HTTPOutput posts batches of entries as a JSON array. A batch is sent when
// it fills up or when the flush interval passes, whichever comes first.
type HTTPOutput struct {
	url           string
	authToken     string
	batchSize     int
	flushInterval time.Duration
	client        *http.Client

	mu     sync.Mutex
	buffer []*LogEntry
	closed bool

	batches chan []*LogEntry
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewHTTPOutput starts the sender goroutine. Zero batchSize or
// flushInterval take the defaults.
func NewHTTPOutput(url, authToken string, batchSize int, flushInterval time.Duration) (*HTTPOutput, error) {
	if url == "" {
		return nil, ErrHTTPURLNotConfigured
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	h := &HTTPOutput{
		url:           url,
		authToken:     authToken,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		client:        &http.Client{Timeout: 10 * time.Second},
		buffer:        make([]*LogEntry, 0, batchSize),
		batches:       make(chan []*LogEntry, 16),
		stop:          make(chan struct{}),
	}

	h.wg.Add(1)
	go h.run()
	return h, nil
}

// Write buffers an entry
func (h *HTTPOutput) Write(entry *LogEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrOutputClosed
	}

	h.buffer = append(h.buffer, entry)
	if len(h.buffer) >= h.batchSize {
		h.enqueueLocked()
	}
	return nil
}

// enqueueLocked hands the buffer to the sender. A full queue drops the
// batch rather than block the caller.
func (h *HTTPOutput) enqueueLocked() {
	if len(h.buffer) == 0 {
		return
	}
	batch := h.buffer
	h.buffer = make([]*LogEntry, 0, h.batchSize)

	select {
	case h.batches <- batch:
	default:
	}
}

func (h *HTTPOutput) run() {
	defer h.wg.Done()

	ticker := time.NewTicker(h.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case batch := <-h.batches:
			_ = h.send(batch)

		case <-ticker.C:
			h.mu.Lock()
			h.enqueueLocked()
			h.mu.Unlock()

		case <-h.stop:
			// Drain what is queued, then the partial buffer
		drain:
			for {
				select {
				case batch := <-h.batches:
					_ = h.send(batch)
				default:
					break drain
				}
			}
			h.mu.Lock()
			batch := h.buffer
			h.buffer = nil
			h.mu.Unlock()
			if len(batch) > 0 {
				_ = h.send(batch)
			}
			return
		}
	}
}

func (h *HTTPOutput) send(entries []*LogEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal log entries: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.authToken)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send logs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Close sends everything still buffered and stops the sender
func (h *HTTPOutput) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	close(h.stop)
	h.wg.Wait()
	return nil
}
