package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/trickeydan/zoloto/marker"
)

func TestDetectFake(t *testing.T) {
	logger := golog.NewTestLogger(t)
	var out bytes.Buffer

	err := detect(&out, arguments{typeName: "6x6_50", size: 200, fake: true}, logger)
	test.That(t, err, test.ShouldBeNil)

	var d marker.Dict
	test.That(t, json.Unmarshal(out.Bytes(), &d), test.ShouldBeNil)
	test.That(t, d.ID, test.ShouldEqual, 25)
	test.That(t, d.Size, test.ShouldEqual, 200)
	test.That(t, d.PixelCorners, test.ShouldHaveLength, 4)
	test.That(t, d.RVec, test.ShouldBeNil)
	test.That(t, d.TVec, test.ShouldBeNil)
}

func TestDetectBadType(t *testing.T) {
	logger := golog.NewTestLogger(t)
	var out bytes.Buffer

	err := detect(&out, arguments{typeName: "9x9_50", fake: true}, logger)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unsupported marker type")
}
