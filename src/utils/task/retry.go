package task

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Implement operation retrying
type Retry struct {
	ctx                context.Context
	maxElapsedTime     time.Duration
	maxInterval        time.Duration
	acceptableDuration time.Duration
	onError            func(err error, isDurationAcceptable bool) error

	firstErrorTime time.Time
}

func NewRetry() *Retry {
	return new(Retry)
}

func (self *Retry) WithMaxElapsedTime(maxElapsedTime time.Duration) *Retry {
	self.maxElapsedTime = maxElapsedTime
	return self
}

func (self *Retry) WithMaxInterval(maxInterval time.Duration) *Retry {
	self.maxInterval = maxInterval
	return self
}

// Errors repeating for longer than this are reported as not acceptable
func (self *Retry) WithAcceptableDuration(v time.Duration) *Retry {
	self.acceptableDuration = v
	return self
}

func (self *Retry) WithContext(ctx context.Context) *Retry {
	self.ctx = ctx
	return self
}

func (self *Retry) WithOnError(v func(err error, isDurationAcceptable bool) error) *Retry {
	self.onError = v
	return self
}

func (self *Retry) Run(f func() error) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = self.maxElapsedTime
	if self.maxInterval > 0 {
		b.MaxInterval = self.maxInterval
	}

	wrapped := func() error {
		err := f()
		if err == nil {
			self.firstErrorTime = time.Time{}
			return nil
		}

		if self.firstErrorTime.IsZero() {
			self.firstErrorTime = time.Now()
		}

		if self.onError != nil {
			isAcceptable := self.acceptableDuration <= 0 ||
				time.Since(self.firstErrorTime) < self.acceptableDuration
			err = self.onError(err, isAcceptable)
		}
		return err
	}

	ctx := self.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	return backoff.Retry(wrapped, backoff.WithContext(b, ctx))
}
