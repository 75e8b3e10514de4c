package repository

// Actor types attribute timeline entries to whoever caused them.
const (
	ActorTypeRecruiter = "recruiter"
	ActorTypeSystem    = "system"
)

// ActorNameSystem labels entries written by sweeps and automated processing.
const ActorNameSystem = "System"

// Activity types stored on candidate_timeline_entries.activity_type.
const (
	ActivityCandidateCreated   = "candidate_created"
	ActivityStageChanged       = "stage_changed"
	ActivityOfferRecorded      = "offer_recorded"
	ActivityPlacementConfirmed = "placement_confirmed"
	ActivityPlacementAtRisk    = "placement_at_risk"
	ActivityGuaranteeCompleted = "guarantee_completed"
	ActivityCandidateReneged   = "candidate_reneged"
	ActivityFollowUpRecorded   = "follow_up_recorded"
	ActivityNoteAdded          = "note_added"
	ActivityResumeUploaded     = "resume_uploaded"
)

// Display titles for timeline entries.
const (
	TitleCandidateCreated   = "Candidate added to pipeline"
	TitleStageChanged       = "Stage updated"
	TitleOfferRecorded      = "Offer recorded"
	TitlePlacementConfirmed = "Candidate joined"
	TitlePlacementAtRisk    = "Placement flagged at risk"
	TitleGuaranteeCompleted = "Guarantee period completed"
	TitleCandidateReneged   = "Candidate reneged"
	TitleFollowUpRecorded   = "Follow-up recorded"
	TitleNoteAdded          = "Note added"
	TitleResumeUploaded     = "Resume uploaded"
)
