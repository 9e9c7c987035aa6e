package directory

import (
	"time"

	"github.com/robfig/cron/v3"

	"training-roster-bot/internal/logger"
)

// Janitor purges past training days on a cron schedule.
type Janitor struct {
	c    *cron.Cron
	spec string
}

func NewJanitor(d *Directory, spec string, now func() time.Time) (*Janitor, error) {
	if now == nil {
		now = time.Now
	}
	j := &Janitor{c: cron.New(cron.WithLocation(d.loc)), spec: spec}
	_, err := j.c.AddFunc(spec, func() {
		n := d.PurgeExpired(now())
		logger.Info("directory janitor: purged %d past training day(s)", n)
	})
	if err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Janitor) Start() {
	logger.Info("starting directory janitor (cron=%s)", j.spec)
	j.c.Start()
}

// Stop waits for a running purge to finish.
func (j *Janitor) Stop() {
	<-j.c.Stop().Done()
}
