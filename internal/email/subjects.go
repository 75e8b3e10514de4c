package email

const (
	subjectRenegeAlertFmt        = "Placement lost: %s has reneged"
	subjectAtRiskAlertFmt        = "Placement at risk: %s"
	subjectGuaranteeCompletedFmt = "Guarantee completed: %s"
	subjectFollowUpReminderFmt   = "Follow-up due: %s"
)
