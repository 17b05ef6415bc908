package middlewares

const (
	CtxRequestID = "request_id"
	CtxEmail     = "auth.email"
)
