// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package dispatch_test

import (
	"context"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/npspy/internal/calllog"
	"github.com/holomush/npspy/internal/dispatch"
	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/internal/harness"
	"github.com/holomush/npspy/internal/loader"
	"github.com/holomush/npspy/internal/registry"
	"github.com/holomush/npspy/pkg/npapi"
)

const pluginMIME = "application/x-npspy-test"

// memorySink keeps every call log record.
type memorySink struct {
	records []calllog.Record
}

func (s *memorySink) Write(rec calllog.Record) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *memorySink) lines() []string {
	out := make([]string, len(s.records))
	for i, r := range s.records {
		out[i] = strings.TrimSuffix(r.Line, "\n")
	}
	return out
}

// lifecycleFixture wires the shipped Lua plugin behind a dispatcher.
type lifecycleFixture struct {
	dispatcher *dispatch.Dispatcher
	sink       *memorySink
	host       *harness.Host
	session    *harness.Session
}

func newLifecycleFixture(cfg dispatch.Config) *lifecycleFixture {
	sink := &memorySink{}
	log := calllog.New(calllog.WithSink(sink))
	dir := loader.NewDirectory(filepath.Join("..", "..", "plugins"))

	d, err := dispatch.NewDispatcher(dir, dispatch.WithConfig(cfg), dispatch.WithCallLog(log))
	Expect(err).NotTo(HaveOccurred())

	host := harness.NewHost()
	session, err := harness.NewSession(d, host)
	Expect(err).NotTo(HaveOccurred())

	return &lifecycleFixture{dispatcher: d, sink: sink, host: host, session: session}
}

var _ = Describe("Dispatcher lifecycle with a Lua plugin", func() {
	var f *lifecycleFixture

	Context("with the default policy", func() {
		BeforeEach(func() {
			f = newLifecycleFixture(dispatch.Config{})
			Expect(f.session.Start()).To(Succeed())
		})

		It("logs the module entry points", func() {
			Expect(f.sink.lines()).To(ContainElement("NP_Initialize: success"))
			Expect(f.dispatcher.Initialized()).To(BeTrue())
		})

		It("loads the plugin on first use and keeps it after the last instance", func() {
			report, err := f.session.Run(context.Background(), harness.Script{
				MIMEType:   pluginMIME,
				Instances:  2,
				Iterations: 1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Created()).To(Equal(2))

			reg := f.dispatcher.Registry()
			Expect(reg.Len()).To(Equal(1))
			entry, ok := reg.Lookup(pluginMIME)
			Expect(ok).To(BeTrue())
			Expect(entry.State()).To(Equal(registry.EntryActive))
			Expect(reg.LiveInstances()).To(Equal(0))

			Expect(f.sink.lines()).To(ContainElement("Loaded plugin for " + pluginMIME))
			Expect(f.sink.lines()).NotTo(ContainElement("Unloaded plugin for " + pluginMIME))
		})

		It("logs the plugin's browser calls between the NPP call and its return", func() {
			_, err := f.session.Run(context.Background(), harness.Script{MIMEType: pluginMIME, Instances: 1})
			Expect(err).NotTo(HaveOccurred())

			lines := f.sink.lines()
			newAt, statusAt, returnAt := -1, -1, -1
			for i, l := range lines {
				switch {
				case newAt < 0 && strings.HasPrefix(l, "NPP_New("):
					newAt = i
				case newAt >= 0 && statusAt < 0 && strings.HasPrefix(l, "NPN_Status("):
					statusAt = i
				case statusAt >= 0 && returnAt < 0 && strings.HasPrefix(l, "---Return: 0"):
					returnAt = i
				}
			}
			Expect(newAt).To(BeNumerically(">=", 0))
			Expect(statusAt).To(BeNumerically(">", newAt))
			Expect(returnAt).To(BeNumerically(">", statusAt))
			Expect(f.host.Statuses()).To(ContainElement("test-plugin loaded for " + pluginMIME))
		})

		It("refuses MIME types no plugin handles", func() {
			report, err := f.session.Run(context.Background(), harness.Script{MIMEType: "video/x-none", Instances: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Instances[0].NewResult).To(Equal(npapi.GenericError))
			Expect(f.dispatcher.Registry().Len()).To(Equal(0))
		})

		It("silences allocator calls by default", func() {
			Expect(f.dispatcher.CallLog().IsMuted(format.ActionNPNMemAlloc)).To(BeTrue())
		})

		It("shuts every plugin down on NP_Shutdown", func() {
			_, err := f.session.Run(context.Background(), harness.Script{MIMEType: pluginMIME, Instances: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(f.session.Close()).To(Succeed())
			Expect(f.dispatcher.Initialized()).To(BeFalse())
			Expect(f.sink.lines()).To(ContainElement("NP_Shutdown: 1 plugin(s) shut down"))
		})
	})

	Context("with ShutdownAfterLastInstance", func() {
		BeforeEach(func() {
			f = newLifecycleFixture(dispatch.Config{ShutdownAfterLastInstance: true})
			Expect(f.session.Start()).To(Succeed())
		})

		AfterEach(func() {
			Expect(f.session.Close()).To(Succeed())
		})

		It("unloads the plugin once its last instance is destroyed", func() {
			report, err := f.session.Run(context.Background(), harness.Script{
				MIMEType:   pluginMIME,
				Instances:  3,
				Iterations: 2,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Created()).To(Equal(3))
			Expect(report.BytesWritten()).To(Equal(int64(3 * 2 * 4096)))

			Expect(f.dispatcher.Registry().Len()).To(Equal(0))
			Expect(f.sink.lines()).To(ContainElement("Unloaded plugin for " + pluginMIME))
		})

		It("loads the plugin again for the next instance", func() {
			for range 2 {
				report, err := f.session.Run(context.Background(), harness.Script{MIMEType: pluginMIME, Instances: 1})
				Expect(err).NotTo(HaveOccurred())
				Expect(report.Created()).To(Equal(1))
			}

			loaded := 0
			for _, l := range f.sink.lines() {
				if l == "Loaded plugin for "+pluginMIME {
					loaded++
				}
			}
			Expect(loaded).To(Equal(2))
		})
	})
})
