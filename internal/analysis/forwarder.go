// Package analysis forwards video evidence to an external analysis webhook.
// Forwarding is decoupled from the submission request: tasks go through a
// bounded queue served by background workers, and failures never reach the
// submitter.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	maxAttempts = 3
	retryDelay  = 2 * time.Second
)

type Task struct {
	StoredPath  string
	FileName    string
	Description string
}

type Forwarder struct {
	webhookURL string
	client     *http.Client
	timeout    time.Duration
	queue      chan Task
	done       chan struct{}
	log        zerolog.Logger
}

func NewForwarder(webhookURL string, workers, queueSize int, timeout time.Duration, log zerolog.Logger) *Forwarder {
	f := &Forwarder{
		webhookURL: webhookURL,
		client:     &http.Client{},
		timeout:    timeout,
		queue:      make(chan Task, queueSize),
		done:       make(chan struct{}),
		log:        log,
	}
	for i := 0; i < workers; i++ {
		go f.worker()
	}
	return f
}

// Enabled reports whether a webhook is configured at all.
func (f *Forwarder) Enabled() bool {
	return f.webhookURL != ""
}

// Enqueue hands a video off for analysis. It never blocks: with the queue
// saturated or no webhook configured the task is dropped with a log line.
func (f *Forwarder) Enqueue(task Task) {
	if !f.Enabled() {
		return
	}
	select {
	case f.queue <- task:
	default:
		f.log.Warn().Str("file", task.FileName).Msg("analysis queue full, dropping video")
	}
}

// Close stops accepting tasks and lets workers drain what is queued.
func (f *Forwarder) Close() {
	close(f.queue)
	close(f.done)
}

func (f *Forwarder) worker() {
	for task := range f.queue {
		f.process(task)
	}
}

func (f *Forwarder) process(task Task) {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = f.send(task); err == nil {
			f.log.Debug().Str("file", task.FileName).Msg("video forwarded for analysis")
			return
		}
		if attempt < maxAttempts {
			select {
			case <-time.After(time.Duration(attempt) * retryDelay):
			case <-f.done:
				return
			}
		}
	}
	// Best effort only: the submission already succeeded.
	f.log.Error().Err(err).Str("file", task.FileName).Msg("video analysis forwarding failed")
}

func (f *Forwarder) send(task Task) error {
	file, err := os.Open(task.StoredPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("video_file", task.FileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}
	if err := writer.WriteField("user_description", task.Description); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, &body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("analysis webhook returned %d", resp.StatusCode)
	}
	return nil
}
