// Package email sends account lifecycle mail via AWS SES.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailService handles sending emails via AWS SES
type EmailService struct {
	client    *ses.Client
	fromEmail string
	fromName  string
	baseURL   string
}

// NewEmailService creates a new email service using AWS SES
func NewEmailService(region, fromEmail, fromName, baseURL string) (*EmailService, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &EmailService{
		client:    ses.NewFromConfig(cfg),
		fromEmail: fromEmail,
		fromName:  fromName,
		baseURL:   baseURL,
	}, nil
}

// SendVerification mails the signup confirmation link
func (e *EmailService) SendVerification(ctx context.Context, to, name, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", e.baseURL, token)

	subject := "Confirm your CollegeConnect email"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; font-family: sans-serif;">
			<h1>Welcome to CollegeConnect, %s!</h1>
			<p>Confirm your email address to activate your account. This link expires in 24 hours.</p>
			<a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: white; text-decoration: none; border-radius: 6px;">Confirm Email</a>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; color: #666;">%s</p>
			<p>If you didn't sign up, you can safely ignore this email.</p>
		</div>
	`, name, verifyURL, verifyURL)
	textBody := fmt.Sprintf(`Welcome to CollegeConnect, %s!

Confirm your email address to activate your account. This link expires in 24 hours.

%s

If you didn't sign up, you can safely ignore this email.
`, name, verifyURL)

	return e.send(ctx, to, subject, htmlBody, textBody)
}

// SendPasswordReset mails the password reset link
func (e *EmailService) SendPasswordReset(ctx context.Context, to, name, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", e.baseURL, token)

	subject := "Reset your CollegeConnect password"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; font-family: sans-serif;">
			<h1>Reset your password</h1>
			<p>Hi %s, you requested a password reset. The link below expires in 1 hour.</p>
			<a href="%s" style="display: inline-block; padding: 12px 24px; background-color: #4f46e5; color: white; text-decoration: none; border-radius: 6px;">Reset Password</a>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; color: #666;">%s</p>
			<p>If you didn't request this reset, you can safely ignore this email.</p>
		</div>
	`, name, resetURL, resetURL)
	textBody := fmt.Sprintf(`Reset your password

Hi %s, you requested a password reset. The link below expires in 1 hour.

%s

If you didn't request this reset, you can safely ignore this email.
`, name, resetURL)

	return e.send(ctx, to, subject, htmlBody, textBody)
}

// SendContactAck acknowledges a support inquiry
func (e *EmailService) SendContactAck(ctx context.Context, to, name string) error {
	subject := "We received your message"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; font-family: sans-serif;">
			<p>Hi %s,</p>
			<p>Thanks for reaching out. The CollegeConnect team will get back to you soon.</p>
		</div>
	`, name)
	textBody := fmt.Sprintf("Hi %s,\n\nThanks for reaching out. The CollegeConnect team will get back to you soon.\n", name)

	return e.send(ctx, to, subject, htmlBody, textBody)
}

// SendContactReply mails a staff answer to a support inquiry
func (e *EmailService) SendContactReply(ctx context.Context, to, name, reply string) error {
	subject := "Re: your message to CollegeConnect"
	htmlBody := fmt.Sprintf(`
		<div style="max-width: 600px; margin: 0 auto; font-family: sans-serif;">
			<p>Hi %s,</p>
			<p>%s</p>
			<p>— The CollegeConnect team</p>
		</div>
	`, name, reply)
	textBody := fmt.Sprintf("Hi %s,\n\n%s\n\n— The CollegeConnect team\n", name, reply)

	return e.send(ctx, to, subject, htmlBody, textBody)
}

func (e *EmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := e.fromEmail
	if e.fromName != "" {
		from = fmt.Sprintf("%s <%s>", e.fromName, e.fromEmail)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data:    aws.String(htmlBody),
					Charset: aws.String("UTF-8"),
				},
				Text: &types.Content{
					Data:    aws.String(textBody),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	if _, err := e.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
