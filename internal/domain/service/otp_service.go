package service

import "context"

// OTPService issues and delivers one-time codes for mechanic signup. The
// development implementation returns a fixed code and skips delivery.
type OTPService interface {
	Generate(ctx context.Context) (string, error)
	Send(ctx context.Context, phone, code string) error
}
