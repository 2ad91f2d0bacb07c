package memsys_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/timing/memsys"
)

var _ = Describe("Config", func() {
	Describe("Defaults", func() {
		It("should create a valid default config", func() {
			config := memsys.DefaultConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.HitLatency).To(Equal(uint64(1)))
			Expect(config.MissLatency).To(Equal(uint64(12)))
			Expect(config.CacheSize).To(Equal(128 * 1024))
			Expect(config.Associativity).To(Equal(8))
			Expect(config.BlockSize).To(Equal(64))
		})

		It("should create a valid slow-memory config", func() {
			config := memsys.SlowMemoryConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.MissLatency).To(Equal(uint64(40)))
		})
	})

	Describe("Validation", func() {
		It("should reject zero hit latency", func() {
			config := memsys.DefaultConfig()
			config.HitLatency = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject miss latency below hit latency", func() {
			config := memsys.DefaultConfig()
			config.HitLatency = 10
			config.MissLatency = 5
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject non-positive associativity", func() {
			config := memsys.DefaultConfig()
			config.Associativity = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject block sizes that split a store lane", func() {
			config := memsys.DefaultConfig()
			config.BlockSize = 12
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject cache sizes that do not fill whole sets", func() {
			config := memsys.DefaultConfig()
			config.CacheSize = 1000
			Expect(config.Validate()).To(HaveOccurred())
		})
	})

	Describe("Clone", func() {
		It("should create an independent copy", func() {
			original := memsys.DefaultConfig()
			clone := original.Clone()

			clone.MissLatency = 99

			Expect(original.MissLatency).To(Equal(uint64(12)))
			Expect(clone.MissLatency).To(Equal(uint64(99)))
		})
	})

	Describe("File operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "memsys-config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load a config", func() {
			original := memsys.DefaultConfig()
			original.MissLatency = 25
			original.CacheSize = 64 * 1024

			path := filepath.Join(tempDir, "memsys.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := memsys.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MissLatency).To(Equal(uint64(25)))
			Expect(loaded.CacheSize).To(Equal(64 * 1024))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			err := os.WriteFile(path, []byte(`{"miss_latency": 33}`), 0644)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := memsys.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.MissLatency).To(Equal(uint64(33)))
			Expect(loaded.HitLatency).To(Equal(uint64(1)))
			Expect(loaded.BlockSize).To(Equal(64))
		})

		It("should return an error for a missing file", func() {
			_, err := memsys.LoadConfig("/nonexistent/path/memsys.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return an error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = memsys.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
