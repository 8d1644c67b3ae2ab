package formatter

// The templates below are never modified, clients copy them into their own Collection.
var (
	rconTemplate = []Entry{
		{Formatter: Default{}, Ignore: []string{QueryCommand, PingCommand}, Priority: DefaultPriority},
	}
	queryTemplate = []Entry{
		{Formatter: Default{}, Match: []string{QueryCommand}, Priority: DefaultPriority},
	}
	pingTemplate = []Entry{
		{Formatter: ChatObject{}, Match: []string{PingCommand}, Priority: ChatObject{}.Priority()},
		{Formatter: SampleDescription{}, Match: []string{PingCommand}, Priority: SampleDescription{}.Priority()},
		{Formatter: Default{}, Match: []string{PingCommand}, Priority: DefaultPriority},
	}
)

func RCONTemplate() *Collection {
	return NewCollection(rconTemplate...)
}

func QueryTemplate() *Collection {
	return NewCollection(queryTemplate...)
}

func PingTemplate() *Collection {
	return NewCollection(pingTemplate...)
}
