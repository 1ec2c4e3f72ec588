package cache

// Key is an entity-scoped cache key. Every key carries the kind of entity
// it caches and the id of the single entity that owns it, so a key shared
// across entities cannot be constructed. Build keys through the typed
// constructors below, never from raw strings.
type Key struct {
	kind string
	id   string
}

func newKey(kind, id string) Key {
	return Key{kind: kind, id: id}
}

// ProfileKey caches one user's profile snapshot.
func ProfileKey(userID string) Key { return newKey("profile", userID) }

// PostKey caches one post snapshot.
func PostKey(postID string) Key { return newKey("post", postID) }

// UserPostsKey caches one user's recent-posts page.
func UserPostsKey(userID string) Key { return newKey("userposts", userID) }

func (k Key) String() string {
	return k.kind + ":" + k.id
}

// Valid reports whether the key names a concrete owning entity.
func (k Key) Valid() bool {
	return k.kind != "" && k.id != ""
}
