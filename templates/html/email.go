package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail wraps plain text in the branded layout. The body is
// HTML-escaped and newlines become <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	return layout(subject, strings.ReplaceAll(escaped, "\n", "<br>"))
}

// RenderInvitationEmail renders the board invitation email with a button
// that opens the invitee's invitation list.
func RenderInvitationEmail(inviter, boardTitle, link string) string {
	body := fmt.Sprintf(`<p><strong>%s</strong> invited you to join the board <strong>%s</strong>.</p>
      <p>Accept or decline the invitation from your notifications.</p>
      <p><a class="button" href="%s">Open invitations</a></p>`,
		html.EscapeString(inviter), html.EscapeString(boardTitle), html.EscapeString(link))
	return layout(inviter+" invited you to "+boardTitle, body)
}

// RenderVerifyAccountEmail renders the account verification email
func RenderVerifyAccountEmail(link string) string {
	body := fmt.Sprintf(`<p>Welcome to Task Board! Confirm your email address to activate your account.</p>
      <p><a class="button" href="%s">Verify account</a></p>
      <p>If the button does not work, paste this link into your browser:<br>%s</p>`,
		html.EscapeString(link), html.EscapeString(link))
	return layout("Verify your account", body)
}

func layout(subject, htmlBody string) string {
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #0079bf; padding: 32px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 32px 30px; color: #172b4d; line-height: 1.6; font-size: 15px; }
    .button { display: inline-block; padding: 10px 18px; background-color: #0079bf; color: #fff; border-radius: 4px; text-decoration: none; }
    .footer { padding: 24px; text-align: center; color: #6b778c; font-size: 12px; border-top: 1px solid #dfe1e6; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>You received this email because of activity on your Task Board account.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}
