package moodle

import "encoding/xml"

// Quiz is the root <quiz> element. Every child is a <question>, the
// category first.
type Quiz struct {
	Category  categoryQuestion
	Questions []codeRunnerQuestion
}

func (q *Quiz) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start = xml.StartElement{Name: xml.Name{Local: "quiz"}}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	question := xml.StartElement{Name: xml.Name{Local: "question"}}
	if err := e.EncodeElement(q.Category, question); err != nil {
		return err
	}
	for _, cq := range q.Questions {
		if err := e.EncodeElement(cq, question); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

type text struct {
	Text string `xml:"text"`
}

type formattedText struct {
	Format string `xml:"format,attr"`
	Text   string `xml:"text"`
}

type cdata struct {
	Value string `xml:",cdata"`
}

type cdataText struct {
	Format string `xml:"format,attr,omitempty"`
	Text   cdata  `xml:"text"`
}

type categoryQuestion struct {
	Type     string        `xml:"type,attr"`
	Category text          `xml:"category"`
	Info     formattedText `xml:"info"`
	IDNumber string        `xml:"idnumber"`
}

type codeRunnerQuestion struct {
	Type                     string        `xml:"type,attr"`
	Name                     text          `xml:"name"`
	QuestionText             cdataText     `xml:"questiontext"`
	GeneralFeedback          formattedText `xml:"generalfeedback"`
	DefaultGrade             string        `xml:"defaultgrade"`
	Penalty                  string        `xml:"penalty"`
	Hidden                   string        `xml:"hidden"`
	IDNumber                 string        `xml:"idnumber"`
	CodeRunnerType           string        `xml:"coderunnertype"`
	PrototypeType            int           `xml:"prototypetype"`
	AllOrNothing             int           `xml:"allornothing"`
	PenaltyRegime            string        `xml:"penaltyregime"`
	Precheck                 int           `xml:"precheck"`
	HideCheck                int           `xml:"hidecheck"`
	ShowSource               int           `xml:"showsource"`
	AnswerBoxLines           int           `xml:"answerboxlines"`
	AnswerBoxColumns         int           `xml:"answerboxcolumns"`
	AnswerPreload            string        `xml:"answerpreload"`
	GlobalExtra              string        `xml:"globalextra"`
	UseAce                   string        `xml:"useace"`
	ResultColumns            string        `xml:"resultcolumns"`
	Template                 cdata         `xml:"template"`
	IsCombinatorTemplate     string        `xml:"iscombinatortemplate"`
	AllowMultipleStdins      string        `xml:"allowmultiplestdins"`
	Answer                   string        `xml:"answer"`
	ValidateOnSave           int           `xml:"validateonsave"`
	TestSplitterRe           string        `xml:"testsplitterre"`
	Language                 string        `xml:"language"`
	AceLang                  string        `xml:"acelang"`
	Sandbox                  string        `xml:"sandbox"`
	Grader                   string        `xml:"grader"`
	CPUTimeLimitSecs         string        `xml:"cputimelimitsecs"`
	MemLimitMB               string        `xml:"memlimitmb"`
	SandboxParams            string        `xml:"sandboxparams"`
	TemplateParams           string        `xml:"templateparams"`
	HoistTemplateParams      int           `xml:"hoisttemplateparams"`
	ExtractCodeFromJSON      int           `xml:"extractcodefromjson"`
	TemplateParamsLang       string        `xml:"templateparamslang"`
	TemplateParamsEvalPerTry int           `xml:"templateparamsevalpertry"`
	TemplateParamsEvald      string        `xml:"templateparamsevald"`
	TwigAll                  int           `xml:"twigall"`
	UIPlugin                 string        `xml:"uiplugin"`
	UIParameters             string        `xml:"uiparameters"`
	Attachments              string        `xml:"attachments"`
	AttachmentsRequired      string        `xml:"attachmentsrequired"`
	MaxFileSize              string        `xml:"maxfilesize"`
	FilenamesRegex           string        `xml:"filenamesregex"`
	FilenamesExplain         string        `xml:"filenamesexplain"`
	DisplayFeedback          int           `xml:"displayfeedback"`
	GiveUpAllowed            int           `xml:"giveupallowed"`
	PrototypeExtra           string        `xml:"prototypeextra"`
	TestCases                testCases     `xml:"testcases"`
	Tags                     tags          `xml:"tags"`
}

type testCases struct {
	Cases []testCase `xml:"testcase"`
}

type testCase struct {
	TestType       string    `xml:"testtype,attr"`
	UseAsExample   string    `xml:"useasexample,attr"`
	HideRestIfFail string    `xml:"hiderestiffail,attr"`
	Mark           string    `xml:"mark,attr"`
	TestCode       cdataText `xml:"testcode"`
	Stdin          text      `xml:"stdin"`
	Expected       text      `xml:"expected"`
	Extra          text      `xml:"extra"`
	Display        text      `xml:"display"`
}

type tags struct {
	Tags []text `xml:"tag"`
}
