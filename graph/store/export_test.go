package store

// TruncateForTest empties the shared MySQL table between test cases.
func TruncateForTest(m *MySQLStore) error {
	_, err := m.db.Exec("DELETE FROM memory_entries")
	return err
}
