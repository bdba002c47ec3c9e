package usecase

const welcomeSubject = "Welcome to Sports Club"

const welcomeBody = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background-color: #f5f5f5; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 30px; border-radius: 10px;">
    <h2 style="color: #4f46e5;">Welcome to {{.club_name}}, {{.first_name}}!</h2>
    <p>Your membership is active. Sign in with your email or phone and the code from your authenticator app.</p>
    {{if .support_email}}<p>Questions? Write to <a href="mailto:{{.support_email}}">{{.support_email}}</a>.</p>{{end}}
    <p style="color: #a0aec0; font-size: 12px;">&copy; {{.year}} {{.club_name}}</p>
  </div>
</body>
</html>`
