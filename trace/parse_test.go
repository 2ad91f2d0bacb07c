package trace_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/timing/storebuffer"
	"github.com/sarchlab/sbsim/trace"
)

func parse(text string) ([]trace.Command, error) {
	return trace.Parse(strings.NewReader(text))
}

var _ = Describe("Parse", func() {
	Context("with valid traces", func() {
		It("should parse a push directive", func() {
			commands, err := parse("push 0x1000 0xDEAD 0xFF 3\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(commands).To(HaveLen(1))

			cmd := commands[0]
			Expect(cmd.Push).To(BeTrue())
			Expect(cmd.Address).To(Equal(uint64(0x1000)))
			Expect(cmd.Data).To(Equal(uint64(0xDEAD)))
			Expect(cmd.ByteEnable).To(Equal(uint8(0xFF)))
			Expect(cmd.Size).To(Equal(storebuffer.SizeDouble))
			Expect(cmd.Line).To(Equal(1))
		})

		It("should accept size names", func() {
			commands, err := parse(strings.Join([]string{
				"push 0x1000 1 0x01 byte",
				"push 0x1002 2 0x0C half",
				"push 0x1004 3 0xF0 word",
				"push 0x1008 4 0xFF double",
			}, "\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(commands).To(HaveLen(4))
			Expect(commands[0].Size).To(Equal(storebuffer.SizeByte))
			Expect(commands[1].Size).To(Equal(storebuffer.SizeHalf))
			Expect(commands[2].Size).To(Equal(storebuffer.SizeWord))
			Expect(commands[3].Size).To(Equal(storebuffer.SizeDouble))
		})

		It("should parse probe, commit, flush, load, idle, and drain", func() {
			commands, err := parse(strings.Join([]string{
				"probe 0x2340",
				"commit",
				"flush",
				"load 0x340",
				"idle 5",
				"drain",
			}, "\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(commands).To(HaveLen(6))

			Expect(commands[0].Probe).To(BeTrue())
			Expect(commands[0].Address).To(Equal(uint64(0x2340)))
			Expect(commands[1].Commit).To(BeTrue())
			Expect(commands[2].Flush).To(BeTrue())
			Expect(commands[3].HasLoad).To(BeTrue())
			Expect(commands[3].LoadOffset).To(Equal(uint64(0x340)))
			Expect(commands[4].IdleCycles).To(Equal(5))
			Expect(commands[5].Drain).To(BeTrue())
		})

		It("should combine directives on one line into one cycle", func() {
			commands, err := parse("push 0x1000 1 0xFF 3; commit; load 0x100\n")
			Expect(err).NotTo(HaveOccurred())
			Expect(commands).To(HaveLen(1))

			cmd := commands[0]
			Expect(cmd.Push).To(BeTrue())
			Expect(cmd.Commit).To(BeTrue())
			Expect(cmd.HasLoad).To(BeTrue())
			Expect(cmd.LoadOffset).To(Equal(uint64(0x100)))
		})

		It("should skip comments and blank lines", func() {
			commands, err := parse(strings.Join([]string{
				"# streaming store example",
				"",
				"push 0x1000 1 0xFF 3  # first store",
				"   ",
				"commit",
			}, "\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(commands).To(HaveLen(2))
			Expect(commands[0].Line).To(Equal(3))
			Expect(commands[1].Line).To(Equal(5))
		})
	})

	Context("with invalid traces", func() {
		It("should reject commit and flush on one line", func() {
			_, err := parse("commit; flush\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 1"))
			Expect(err.Error()).To(ContainSubstring("commit and flush"))
		})

		It("should reject push and probe on one line", func() {
			_, err := parse("push 0x1000 1 0xFF 3; probe 0x2000\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("push and probe"))
		})

		It("should reject idle combined with other directives", func() {
			_, err := parse("idle 3; commit\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("stand alone"))
		})

		It("should reject unknown directives with the line number", func() {
			_, err := parse("push 0x1000 1 0xFF 3\nstore 0x2000\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("line 2"))
			Expect(err.Error()).To(ContainSubstring("store"))
		})

		It("should reject a push with missing arguments", func() {
			_, err := parse("push 0x1000 1\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("push wants"))
		})

		It("should reject malformed numbers", func() {
			_, err := parse("push zzz 1 0xFF 3\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid number"))
		})

		It("should reject out-of-range sizes", func() {
			_, err := parse("push 0x1000 1 0xFF 9\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("invalid size"))
		})

		It("should reject masks wider than eight bits", func() {
			_, err := parse("push 0x1000 1 0x1FF 3\n")
			Expect(err).To(HaveOccurred())
		})

		It("should reject non-positive idle counts", func() {
			_, err := parse("idle 0\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("idle count"))
		})

		It("should reject duplicate directives in one cycle", func() {
			_, err := parse("commit; commit\n")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("duplicate"))
		})
	})
})

var _ = Describe("LoadFile", func() {
	var tempDir string

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "trace-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should load a trace file", func() {
		path := filepath.Join(tempDir, "stores.trace")
		text := "push 0x1000 42 0xFF 3\ncommit\ndrain\n"
		Expect(os.WriteFile(path, []byte(text), 0644)).To(Succeed())

		commands, err := trace.LoadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(commands).To(HaveLen(3))
	})

	It("should return an error for a missing file", func() {
		_, err := trace.LoadFile(filepath.Join(tempDir, "absent.trace"))
		Expect(err).To(HaveOccurred())
	})

	It("should name the file in parse errors", func() {
		path := filepath.Join(tempDir, "bad.trace")
		Expect(os.WriteFile(path, []byte("bogus\n"), 0644)).To(Succeed())

		_, err := trace.LoadFile(path)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("bad.trace"))
	})
})

var _ = Describe("Command builders", func() {
	It("should build a push with commit and load attached", func() {
		cmd := trace.PushStore(0x1000, 7, 0xFF, storebuffer.SizeDouble).
			WithCommit().
			WithLoad(0x200)

		Expect(cmd.Push).To(BeTrue())
		Expect(cmd.Commit).To(BeTrue())
		Expect(cmd.HasLoad).To(BeTrue())
		Expect(cmd.LoadOffset).To(Equal(uint64(0x200)))
	})

	It("should position the byte enable in PushStore64", func() {
		cmd := trace.PushStore64(0x1008, 0xAB)
		Expect(cmd.ByteEnable).To(Equal(uint8(0xFF)))
		Expect(cmd.Size).To(Equal(storebuffer.SizeDouble))
	})

	It("should convert a push command into cycle inputs", func() {
		in := trace.PushStore(0x1000, 7, 0x0F, storebuffer.SizeWord).Input()

		Expect(in.StoreValid).To(BeTrue())
		Expect(in.AddrValid).To(BeTrue())
		Expect(in.Address).To(Equal(uint64(0x1000)))
		Expect(in.Data).To(Equal(uint64(7)))
		Expect(in.ByteEnable).To(Equal(uint8(0x0F)))
		Expect(in.Size).To(Equal(storebuffer.SizeWord))
	})

	It("should convert a probe without asserting store valid", func() {
		in := trace.Probe(0x3000).Input()

		Expect(in.StoreValid).To(BeFalse())
		Expect(in.AddrValid).To(BeTrue())
		Expect(in.Address).To(Equal(uint64(0x3000)))
	})
})
