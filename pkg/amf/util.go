package amf

import "time"

// epochMillisToTime converts AMF's wire representation (a float64 count
// of milliseconds since the Unix epoch, UTC) to time.Time. No timezone
// component survives — AMF3 carries none, and AMF0's timezone field is
// reserved-zero.
func epochMillisToTime(millis float64) time.Time {
	return time.UnixMilli(int64(millis)).UTC()
}

// timeToEpochMillis is the encode-side inverse of epochMillisToTime.
func timeToEpochMillis(t time.Time) float64 {
	return float64(t.UnixMilli())
}
