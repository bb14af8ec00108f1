package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// JobKind identifies the pipeline slot a job occupies. Preview jobs and
// transfer jobs (download/upload) run in separate slots; starting a new
// job cancels the running one in the same slot.
type JobKind int

const (
	JobPreview JobKind = iota
	JobDownload
	JobUpload
)

// JobStatus is the job lifecycle: Running, then exactly one of the
// terminal states.
type JobStatus int

const (
	JobRunning JobStatus = iota
	JobDone
	JobCancelled
	JobFailed
)

// Job is one in-flight preview or transfer.
type Job struct {
	ID     int
	Kind   JobKind
	Bucket string
	Key    string
	Dest   string // local path for download source path for upload
	Total  int64

	Received int64
	Status   JobStatus
	Err      error

	cancel context.CancelFunc
	events chan jobProgressMsg
}

// jobProgressMsg reports transferred bytes. Senders are rate limited so
// the render loop is not flooded.
type jobProgressMsg struct {
	id       int
	received int64
}

// jobDoneMsg is the terminal completion of a transfer job.
type jobDoneMsg struct {
	id  int
	err error
}

// previewReadyMsg is the terminal completion of a preview job.
type previewReadyMsg struct {
	id      int
	preview Preview
	err     error
}

// progressInterval bounds the progress update rate toward the UI.
const progressInterval = 100 * time.Millisecond

// newJob allocates a job with a fresh generation ID and cancellable
// context. The ID is the staleness token for job completions.
func (m *Model) newJob(kind JobKind, bucket, key, dest string, total int64) (*Job, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	m.jobSeq++
	job := &Job{
		ID:     m.jobSeq,
		Kind:   kind,
		Bucket: bucket,
		Key:    key,
		Dest:   dest,
		Total:  total,
		Status: JobRunning,
		cancel: cancel,
		events: make(chan jobProgressMsg, 16),
	}
	return job, ctx
}

// throttledProgress adapts a job's event channel into the gateway's
// progress callback. Sends are non-blocking and rate limited; dropped
// updates are fine, the next one carries the cumulative count.
func throttledProgress(job *Job) func(int64) {
	limiter := rate.NewLimiter(rate.Every(progressInterval), 1)
	return func(n int64) {
		if !limiter.Allow() {
			return
		}
		select {
		case job.events <- jobProgressMsg{id: job.ID, received: n}:
		default:
		}
	}
}

// listenJob pumps one progress event from the job's channel into the
// update loop. Re-armed by the model on every delivery; ends when the
// worker closes the channel.
func listenJob(job *Job) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-job.events
		if !ok {
			return nil
		}
		return ev
	}
}

// cancelTransfer cancels the running transfer job, if any. A cancelled
// download's partial file is removed here: the gateway never deletes
// partials, that cleanup belongs to the caller. The worker's eventual
// completion is discarded by the job-ID check in the update loop.
func (m *Model) cancelTransfer() {
	job := m.transferJob
	if job == nil || job.Status != JobRunning {
		return
	}
	job.cancel()
	job.Status = JobCancelled
	if job.Kind == JobDownload {
		os.Remove(job.Dest)
	}
	m.log.Info("transfer cancelled", zap.String("key", job.Key))
}

// cancelPreview cancels the running preview job, discarding its buffer.
func (m *Model) cancelPreview() {
	job := m.previewJob
	if job == nil || job.Status != JobRunning {
		return
	}
	job.cancel()
	job.Status = JobCancelled
}

// startDownload begins streaming an object to the download directory,
// cancelling any transfer already running.
func (m *Model) startDownload(bucket string, e Entry, dest string) tea.Cmd {
	m.cancelTransfer()
	job, ctx := m.newJob(JobDownload, bucket, e.Key, dest, e.Size)
	m.transferJob = job

	store, log := m.store, m.log
	progress := throttledProgress(job)
	run := func() tea.Msg {
		err := store.Download(ctx, bucket, e.Key, dest, progress)
		close(job.events)
		if err != nil {
			log.Error("download failed", zap.String("key", e.Key), zap.Error(err))
		}
		return jobDoneMsg{id: job.ID, err: err}
	}
	return tea.Batch(run, listenJob(job))
}

// startUpload begins streaming a local file to the given object key.
func (m *Model) startUpload(path, bucket, key string, size int64) tea.Cmd {
	m.cancelTransfer()
	job, ctx := m.newJob(JobUpload, bucket, key, path, size)
	m.transferJob = job

	store, log := m.store, m.log
	progress := throttledProgress(job)
	run := func() tea.Msg {
		err := store.Upload(ctx, path, bucket, key, progress)
		close(job.events)
		if err != nil {
			log.Error("upload failed", zap.String("key", key), zap.Error(err))
		}
		return jobDoneMsg{id: job.ID, err: err}
	}
	return tea.Batch(run, listenJob(job))
}

// startPreview fetches a bounded prefix of the object and prepares it
// for display, cancelling any preview already in flight.
func (m *Model) startPreview(bucket string, e Entry) tea.Cmd {
	m.cancelPreview()
	job, ctx := m.newJob(JobPreview, bucket, e.Key, "", e.Size)
	m.previewJob = job

	store := m.store
	maxBytes := m.cfg.PreviewMaxBytes
	return func() tea.Msg {
		data, err := store.FetchPrefix(ctx, bucket, e.Key, maxBytes)
		if err != nil {
			return previewReadyMsg{id: job.ID, err: err}
		}
		return previewReadyMsg{
			id:      job.ID,
			preview: buildPreview(e.Key, data, e.Size, int64(len(data))),
		}
	}
}

// applyJobDone folds a transfer completion into the model. Completions
// from superseded jobs are discarded: the job ID acts the same way the
// cache generation does for listings.
func (m *Model) applyJobDone(msg jobDoneMsg) tea.Cmd {
	job := m.transferJob
	if job == nil || job.ID != msg.id || job.Status != JobRunning {
		return nil
	}
	switch {
	case msg.err == nil:
		job.Status = JobDone
		job.Received = job.Total
		if job.Kind == JobUpload {
			// Show the fresh object in the listing.
			m.notify(fmt.Sprintf("Uploaded %s", filepath.Base(job.Key)))
			return m.reloadListing()
		}
		m.notify(fmt.Sprintf("Downloaded to %s", job.Dest))
	case errors.Is(msg.err, context.Canceled):
		job.Status = JobCancelled
	default:
		job.Status = JobFailed
		job.Err = msg.err
		m.notifyError(msg.err)
	}
	return nil
}

// applyJobProgress updates the byte counter of the matching job and
// re-arms the progress listener.
func (m *Model) applyJobProgress(msg jobProgressMsg) tea.Cmd {
	job := m.transferJob
	if job == nil || job.ID != msg.id {
		return nil
	}
	if msg.received > job.Received {
		job.Received = msg.received
	}
	if job.Status != JobRunning {
		return nil
	}
	return listenJob(job)
}

// applyPreviewReady installs a finished preview, unless it belongs to a
// superseded request.
func (m *Model) applyPreviewReady(msg previewReadyMsg) {
	job := m.previewJob
	if job == nil || job.ID != msg.id || job.Status != JobRunning {
		return
	}
	if msg.err != nil {
		job.Status = JobFailed
		job.Err = msg.err
		m.notifyError(msg.err)
		return
	}
	job.Status = JobDone
	m.preview = msg.preview
	m.previewView.SetContent(msg.preview.Text)
	m.previewView.GotoTop()
	m.mode = modePreview
}
