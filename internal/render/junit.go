package render

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/fjglira/bugzero/internal/domain"
)

type junitSuite struct {
	XMLName   xml.Name    `xml:"testsuite"`
	Name      string      `xml:"name,attr"`
	Tests     int         `xml:"tests,attr"`
	Failures  int         `xml:"failures,attr"`
	Skipped   int         `xml:"skipped,attr"`
	Time      string      `xml:"time,attr"`
	Timestamp string      `xml:"timestamp,attr"`
	ID        string      `xml:"id,attr,omitempty"`
	Cases     []junitCase `xml:"testcase"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
	Skipped   *junitSkipped `xml:"skipped,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type junitSkipped struct {
	Message string `xml:"message,attr"`
}

func junitSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}

// RenderJUnit writes rep as a JUnit testsuite, one testcase per action.
// Skipped steps appear as skipped testcases.
func RenderJUnit(w io.Writer, rep *domain.Report) error {
	name := rep.Name
	if name == "" {
		name = "bugzero"
	}
	suite := junitSuite{
		Name:      name,
		Tests:     rep.Summary.Total + len(rep.Skipped),
		Failures:  rep.Summary.Failed,
		Skipped:   len(rep.Skipped),
		Time:      junitSeconds(rep.Duration),
		Timestamp: rep.GeneratedAt.Format("2006-01-02T15:04:05"),
		ID:        rep.RunID,
	}
	for _, e := range rep.Entries {
		c := junitCase{
			Name:      fmt.Sprintf("%d: %s", e.Index, e.Action.Text),
			Classname: name,
			Time:      junitSeconds(e.Result.Duration),
		}
		if !e.Result.Passed() {
			c.Failure = &junitFailure{Message: e.Result.Message, Body: e.Result.String()}
		}
		suite.Cases = append(suite.Cases, c)
	}
	for _, s := range rep.Skipped {
		suite.Cases = append(suite.Cases, junitCase{
			Name:      fmt.Sprintf("step %d: %s", s.Number, s.Command),
			Classname: name,
			Time:      junitSeconds(0),
			Skipped:   &junitSkipped{Message: "command not in translation table"},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(suite); err != nil {
		return domain.NewError("render", rep.Source, 0, "failed to encode JUnit report", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
