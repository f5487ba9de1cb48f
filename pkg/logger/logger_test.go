package logger

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes info messages to the provided writer", func() {
		var buf bytes.Buffer
		l := NewLoggerWithWriters(false, &buf)
		l.Info("hello")
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("hello"))
	})

	It("filters debug messages when debug is disabled", func() {
		var buf bytes.Buffer
		l := NewLoggerWithWriters(false, &buf)
		l.Debug("hidden")
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("emits debug messages when debug is enabled", func() {
		var buf bytes.Buffer
		l := NewLoggerWithWriters(true, &buf)
		l.Debug("visible")
		Expect(l.Sync()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("fans out to multiple writers", func() {
		var buf1, buf2 bytes.Buffer
		l := NewLoggerWithWriters(false, &buf1, &buf2)
		l.Info("broadcast")
		Expect(l.Sync()).To(Succeed())

		Expect(buf1.String()).To(ContainSubstring("broadcast"))
		Expect(buf2.String()).To(ContainSubstring("broadcast"))
	})
})
