package gateway

import (
	"os"
	"time"

	"mdgw/asyncio"
	"mdgw/config"
)

// sqThreadIdleDefault is how long the kernel's SQ-poll thread waits
// for new submissions before parking.
const sqThreadIdleDefault = 2 * time.Second

func newSubmitter(cfg config.Config) (asyncio.Submitter, error) {
	return asyncio.New(asyncio.Config{
		SQEntries:    cfg.RingEntries,
		SQPollCPU:    cfg.SQPollCPU,
		SQThreadIdle: sqThreadIdleDefault,
		IsRoot:       os.Geteuid() == 0,
	})
}
