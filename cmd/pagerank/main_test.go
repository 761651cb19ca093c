package main

import (
	"io/ioutil"
	"testing"

	"github.com/linksrus/pagerank/pagerank"
	"github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(AppTestSuite))

func Test(t *testing.T) {
	// Run all gocheck test-suites
	gc.TestingT(t)
}

type AppTestSuite struct {
	rootLogger *logrus.Logger
}

func (s *AppTestSuite) SetUpTest(c *gc.C) {
	s.rootLogger = &logrus.Logger{Out: ioutil.Discard, Formatter: new(logrus.JSONFormatter)}
	logger = logrus.NewEntry(s.rootLogger)
}

func (s *AppTestSuite) TestRankRejectsInvalidDampingFlag(c *gc.C) {
	dir := c.MkDir()
	for _, d := range []string{"0", "1", "-0.5", "NaN"} {
		err := makeApp(s.rootLogger).Run([]string{appName, "rank", "--damping", d, dir})
		c.Assert(xerrors.Is(err, pagerank.ErrInvalidDampingFactor), gc.Equals, true, gc.Commentf("damping %s: %v", d, err))
	}
}

func (s *AppTestSuite) TestRankRequiresCorpusDir(c *gc.C) {
	err := makeApp(s.rootLogger).Run([]string{appName, "rank"})
	c.Assert(err, gc.ErrorMatches, "usage: .* rank CORPUS_DIR")
}
