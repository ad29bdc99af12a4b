package access

import "context"

const PermissionsKey = "system/pagePermissions"

// RecordStore keeps the permission table as one JSON record.
type RecordStore struct {
	records Records
	key     string
}

func NewRecordStore(records Records) *RecordStore {
	return &RecordStore{records: records, key: PermissionsKey}
}

func (s *RecordStore) Load(ctx context.Context) (Table, bool, error) {
	raw, ok, err := s.records.Get(ctx, s.key)
	if err != nil || !ok {
		return nil, false, err
	}
	t, err := DecodeTable(raw)
	if err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *RecordStore) Save(ctx context.Context, t Table) error {
	raw, err := EncodeTable(t)
	if err != nil {
		return err
	}
	return s.records.Set(ctx, s.key, raw)
}

func (s *RecordStore) Watch(ctx context.Context, fn func(Update)) (func(), error) {
	return s.records.Watch(ctx, s.key, func(value []byte, exists bool, err error) {
		if err != nil {
			fn(Update{Err: err})
			return
		}
		if !exists {
			fn(Update{})
			return
		}
		t, err := DecodeTable(value)
		if err != nil {
			fn(Update{Err: err})
			return
		}
		fn(Update{Table: t, Exists: true})
	})
}
