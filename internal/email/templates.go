package email

import "fmt"

// VerificationCodeHTML renders the OTP email body.
func VerificationCodeHTML(code string) string {
	return fmt.Sprintf(`
        <div style="font-family:sans-serif;max-width:480px;margin:0 auto;padding:32px;background:#1a1a2e;color:#e0e0e0;border-radius:16px;">
            <h2 style="color:#818cf8;margin-bottom:8px;">SurveyBD</h2>
            <p style="color:#a0a0b0;font-size:14px;margin-bottom:24px;">Your verification code is:</p>
            <div style="background:#252545;border:1px solid #3b3b5c;border-radius:12px;padding:24px;text-align:center;margin-bottom:24px;">
                <span style="font-size:36px;font-weight:800;letter-spacing:12px;color:#818cf8;">%s</span>
            </div>
            <p style="color:#a0a0b0;font-size:13px;">This code expires in <strong>10 minutes</strong>.</p>
            <p style="color:#666;font-size:11px;margin-top:24px;">If you didn't request this, please ignore this email.</p>
        </div>
    `, code)
}

// VerificationCodeSubject is the OTP email subject line.
const VerificationCodeSubject = "Your SurveyBD Verification Code"
