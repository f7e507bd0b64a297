package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// DevOTPService generates real codes in production mode and a fixed code
// in development so signup flows can be exercised without an SMS provider.
type DevOTPService struct {
	fixedCode string
}

func NewDevOTPService(isDevelopment bool) *DevOTPService {
	svc := &DevOTPService{}
	if isDevelopment {
		svc.fixedCode = "123456"
	}
	return svc
}

func (s *DevOTPService) Generate(ctx context.Context) (string, error) {
	if s.fixedCode != "" {
		return s.fixedCode, nil
	}

	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *DevOTPService) Send(ctx context.Context, phone, code string) error {
	if s.fixedCode != "" {
		log.Printf("Dev OTP for %s: %s", phone, code)
		return nil
	}

	// TODO: wire an SMS provider for production delivery.
	log.Printf("OTP delivery not configured, code for %s not sent", phone)
	return nil
}
