package domain

import "errors"

var (
	ErrMissingAPIKey     = errors.New("calling API key is not configured")
	ErrCallNotFound      = errors.New("call not found")
	ErrInvalidTransition = errors.New("invalid call status transition")
	ErrAssistantNotFound = errors.New("assistant not found")
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignExists    = errors.New("campaign already exists")
	ErrBatchNotFound     = errors.New("batch job not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnreadableFile    = errors.New("unreadable file")
	ErrMissingColumn     = errors.New("required column missing")
	ErrUnsupportedFormat = errors.New("unsupported format")
)
