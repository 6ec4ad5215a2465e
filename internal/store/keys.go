package store

const (
	placePrefix       = "place:"
	userPrefix        = "user:"
	userByEmailPrefix = "idx:users:email:" // For unique email lookups
)

func placeKey(id string) []byte {
	return []byte(placePrefix + id)
}

func userKey(id string) []byte {
	return []byte(userPrefix + id)
}

func userEmailKey(email string) []byte {
	return []byte(userByEmailPrefix + email)
}
