package common

// SessionCookieName is the cookie that carries the admin session token.
const SessionCookieName = "admin-token"

// LoginPath is the admin login page. It is exempt from the access gate.
const LoginPath = "/admin/login"

// ProtectedPrefix is the path prefix guarded by the access gate.
const ProtectedPrefix = "/admin"
