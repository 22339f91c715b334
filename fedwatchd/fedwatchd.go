package fedwatchd

var (
	DefTLSVerification = false
	DefManagerURL      = "http://localhost:7070"
)
