package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/beaufnet/quotes-api/internal/api/metrics"
	"github.com/beaufnet/quotes-api/internal/core/domain"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// MailSender delivers a single confirmation email.
type MailSender interface {
	SendConfirmation(user *domain.User, token string) error
}

type confirmationJob struct {
	user  *domain.User
	token string
}

// Dispatcher sends confirmation emails off the request path. Jobs are sharded
// over a fixed set of workers by recipient address, so retried signups for
// the same address stay ordered.
type Dispatcher struct {
	workers []chan confirmationJob
	sender  MailSender
	log     zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sender MailSender, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan confirmationJob, numWorkers),
		sender:  sender,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan confirmationJob, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// EnqueueConfirmation queues a confirmation mail for the user. Non-blocking
// up to channelBuffer capacity. Implements service.ConfirmationMailer.
func (d *Dispatcher) EnqueueConfirmation(user *domain.User, token string) {
	d.workers[d.shardIndex(user.Email)] <- confirmationJob{user: user, token: token}
}

// shardIndex maps a recipient address deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32()) % len(d.workers)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan confirmationJob) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sender.SendConfirmation(job.user, job.token); err != nil {
				metrics.ConfirmationMailsTotal.WithLabelValues("error").Inc()
				d.log.Error().Err(err).
					Str("user_id", job.user.ID).
					Int("worker_id", id).
					Msg("confirmation mail failed")
				continue
			}
			metrics.ConfirmationMailsTotal.WithLabelValues("sent").Inc()
			d.log.Info().Str("user_id", job.user.ID).Msg("confirmation mail sent")
		}
	}
}
