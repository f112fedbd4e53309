package store

import "errors"

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrFrameNotFound    = errors.New("campaign frame not found")
	ErrFrameCompleted   = errors.New("campaign frame already completed")
	ErrEntityNotFound   = errors.New("entity not found")
)
