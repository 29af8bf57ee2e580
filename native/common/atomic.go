package common

// Snapshotter is implemented by state backends that can roll back buffered
// writes.
type Snapshotter interface {
	Snapshot() int
	RevertToSnapshot(id int)
}

// Atomic runs fn and reverts every write made through st if fn fails, so a
// failed operation leaves no partial mutation behind.
func Atomic(st Snapshotter, fn func() error) (err error) {
	if st == nil {
		return fn()
	}
	snap := st.Snapshot()
	defer func() {
		if r := recover(); r != nil {
			st.RevertToSnapshot(snap)
			panic(r)
		}
		if err != nil {
			st.RevertToSnapshot(snap)
		}
	}()
	return fn()
}
