package hid

import (
	"encoding/binary"
	"reflect"
	"testing"
)

func frameBytes(count byte, ts uint32, contacts ...[]byte) []byte {
	buf := make([]byte, 6)
	buf[0] = ReportIDContacts
	buf[1] = count
	binary.LittleEndian.PutUint32(buf[2:6], ts)
	for _, c := range contacts {
		buf = append(buf, c...)
	}
	return buf
}

func contactBytes(id, flags byte, x, y uint16) []byte {
	b := make([]byte, 6)
	b[0] = id
	b[1] = flags
	binary.LittleEndian.PutUint16(b[2:4], x)
	binary.LittleEndian.PutUint16(b[4:6], y)
	return b
}

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    *TouchFrame
		wantErr bool
	}{
		{
			name: "no contacts",
			data: frameBytes(0, 12345),
			want: &TouchFrame{Timestamp: 12345, Contacts: []Contact{}},
		},
		{
			name: "two contacts",
			data: frameBytes(2, 99999,
				contactBytes(1, 0x01, 100, 200),
				contactBytes(4, 0x00, 0xFFFF, 7),
			),
			want: &TouchFrame{
				Timestamp: 99999,
				Contacts: []Contact{
					{ID: 1, Tip: true, X: 100, Y: 200},
					{ID: 4, Tip: false, X: 0xFFFF, Y: 7},
				},
			},
		},
		{
			name: "trailing padding is ignored",
			data: append(frameBytes(1, 5, contactBytes(2, 0x03, 1, 2)), make([]byte, 20)...),
			want: &TouchFrame{
				Timestamp: 5,
				Contacts:  []Contact{{ID: 2, Tip: true, X: 1, Y: 2}},
			},
		},
		{
			name:    "data too short",
			data:    []byte{ReportIDContacts, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "wrong report ID",
			data:    []byte{0xFF, 0, 0, 0, 0, 0},
			wantErr: true,
		},
		{
			name:    "too many contacts",
			data:    frameBytes(6, 0),
			wantErr: true,
		},
		{
			name:    "truncated contact",
			data:    frameBytes(2, 0, contactBytes(1, 1, 0, 0)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame(tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFrame() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseFrame() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTouchFrameEncode(t *testing.T) {
	frame := &TouchFrame{
		Timestamp: 4242,
		Contacts: []Contact{
			{ID: 3, Tip: true, X: 640, Y: 480},
			{ID: 9, Tip: false, X: 1, Y: 65535},
		},
	}

	data := frame.Encode()
	if len(data) != 18 {
		t.Fatalf("len(Encode()) = %d, want 18", len(data))
	}
	if data[0] != ReportIDContacts || data[1] != 2 {
		t.Errorf("header = % X, want report 03 count 02", data[:2])
	}

	got, err := ParseFrame(data)
	if err != nil {
		t.Fatalf("ParseFrame(Encode()) error = %v", err)
	}
	if !reflect.DeepEqual(got, frame) {
		t.Errorf("ParseFrame(Encode()) = %+v, want %+v", got, frame)
	}
}

func TestEncodeInputMode(t *testing.T) {
	if got := EncodeInputMode(InputModeTouch); !reflect.DeepEqual(got, []byte{0x04, 0x03}) {
		t.Errorf("EncodeInputMode(touch) = % X, want 04 03", got)
	}
}

func TestSortTouchFirst(t *testing.T) {
	keyboard := DeviceInfo{Product: "keys", UsagePage: 0x01, Usage: 0x06}
	pad := DeviceInfo{Product: "pad", UsagePage: UsagePageDigitizer, Usage: UsageTouchPad}
	screen := DeviceInfo{Product: "screen", UsagePage: UsagePageDigitizer, Usage: UsageTouchScreen}
	pen := DeviceInfo{Product: "pen", UsagePage: UsagePageDigitizer, Usage: 0x02}

	tests := []struct {
		name    string
		devices []DeviceInfo
		want    []string
	}{
		{"touch first", []DeviceInfo{keyboard, pen, pad}, []string{"pad", "keys", "pen"}},
		{"stable", []DeviceInfo{screen, keyboard, pad}, []string{"screen", "pad", "keys"}},
		{"no touch", []DeviceInfo{keyboard, pen}, []string{"keys", "pen"}},
		{"empty", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SortTouchFirst(tt.devices)
			var got []string
			for _, d := range tt.devices {
				got = append(got, d.Product)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SortTouchFirst() = %v, want %v", got, tt.want)
			}
		})
	}
}
