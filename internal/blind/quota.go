// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind

import (
	"context"
	"time"
)

// Quota limits how many blind signatures one subscriber obtains per key.
type Quota interface {

	/*
		Consume records one issuance for subject under keyID.

		Parameters:
		  - ctx: context.Context
		  - keyID: string (the active key the signature is made with)
		  - subject: string (subscriber id)
		  - window: time.Duration (time left until keyID is rotated out)

		Returns:
		  - error: apperr.RateLimited when the quota is exhausted, or counter failures
	*/
	Consume(ctx context.Context, keyID, subject string, window time.Duration) error
}

// Unlimited is the [Quota] used when no limit is configured.
type Unlimited struct{}

// Consume always succeeds.
func (Unlimited) Consume(context.Context, string, string, time.Duration) error { return nil }
