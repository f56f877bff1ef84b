package domain

// Source is where an SOS event originated on the client.
type Source string

const (
	SourceManual Source = "manual"
	SourceVoice  Source = "voice"
	SourceAuto   Source = "auto"
	SourcePanic  Source = "panic"
)

func ParseSource(s string) (Source, bool) {
	src := Source(s)
	return src, src.Valid()
}

func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceVoice, SourceAuto, SourcePanic:
		return true
	}
	return false
}
