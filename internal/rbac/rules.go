package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"quiz:view",
		"attempt:start",
		"attempt:answer",
		"attempt:submit",
		"attempt:view-own",
	},
	"instructor": {
		"quiz:create",
		"quiz:publish",
		"quiz:view",
		"attempt:view-all",
		"attempt:grade",
		"attempt:regrade",
		"stats:view",
		"enrollment:manage",
	},
	"admin": {
		"*", // everything
	},
}
