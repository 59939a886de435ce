package store

import "testing"

func TestCheckIndexFormatAccepted(t *testing.T) {
	db := newTestDB(t)
	if err := db.CheckIndexFormat(); err != nil {
		t.Fatalf("CheckIndexFormat: %v", err)
	}
}

func TestCheckIndexFormatRejectsFutureSchema(t *testing.T) {
	db := newTestDB(t)
	fields, err := db.CoreFields()
	if err != nil {
		t.Fatal(err)
	}
	fields.Set("Wpkgar-Format", "2.0.0")
	if err := db.WriteControl(coreRecordName, fields); err != nil {
		t.Fatal(err)
	}
	if err := db.CheckIndexFormat(); err == nil {
		t.Fatal("expected rejection of unsupported schema version")
	}
}

func TestIndexStoreRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ix, err := db.OpenIndexStore()
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	entries := []ArchiveEntry{
		{Path: "/usr/bin/t1", Type: EntryRegular, Size: 1024, Mode: 0755},
		{Path: "/etc/t1.conf", Type: EntryRegular, Size: 32, Mode: 0644},
	}
	if err := ix.PutEntries("t1", entries); err != nil {
		t.Fatal(err)
	}

	got, err := ix.Entries("t1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	byPath := map[string]ArchiveEntry{}
	for _, e := range got {
		byPath[e.Path] = e
	}
	if byPath["/usr/bin/t1"].Size != 1024 || byPath["/usr/bin/t1"].Mode != 0755 {
		t.Errorf("round-tripped entry mismatch: %+v", byPath["/usr/bin/t1"])
	}
}
