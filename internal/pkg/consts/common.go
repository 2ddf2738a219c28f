package consts

const (
	RoleAdmin = "ADMIN"
)

const (
	ActivityDefaultLimit = 20
	ActivityMaxLimit     = 100
	BackfillBatchSize    = 500
)

const (
	ReminderTitle       = "Time for your pushups"
	ReminderURL         = "/"
	ReminderRestDayBody = "It's a rest day – enjoy the break!"
	ReminderBodyFormat  = "Don't forget to log your pushups today! Target: %d pushups."
)

const (
	FeedbackTypeFeedback = "feedback"
	FeedbackTypeBug      = "bug"
)
