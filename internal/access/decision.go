package access

// CanAccess reports whether a principal holding role may access the area
// identified by path. The function is pure and fails closed: a missing role,
// an unrecognized role, or a path outside the role's allow-list all deny.
// It never returns an error; denial is a normal outcome, not a failure.
func CanAccess(role Role, path string) bool {
	if role == "" {
		return false
	}
	set, ok := rolePolicies[role]
	if !ok {
		return false
	}
	_, allowed := set[NormalizePath(path)]
	return allowed
}
