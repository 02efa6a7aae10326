package rbac

const (
	RoleLearner = "learner"
	RoleAuthor  = "author"
	RoleAdmin   = "admin"
)

const (
	PermLessonView     = "lesson:view"
	PermLessonRefresh  = "lesson:refresh"
	PermAttemptPlay    = "attempt:play"
	PermPreferenceEdit = "preference:edit"
	PermEventsRead     = "events:read"
)

// Default policy. Authors can preview a lesson but do not run attempts.
var DefaultPolicy = Policy{
	RoleLearner: {
		PermLessonView,
		PermAttemptPlay,
		PermPreferenceEdit,
	},
	RoleAuthor: {
		"lesson:*",
		PermPreferenceEdit,
	},
	RoleAdmin: {
		"*",
	},
}
