package auth_test

import (
	"errors"
	"time"

	"github.com/alicomputer/retail-pos/internal/auth"
	"github.com/alicomputer/retail-pos/internal/identity"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("IdentityCodec", func() {
	var ident *identity.Identity

	BeforeEach(func() {
		ident = &identity.Identity{
			ID:        "2",
			Email:     "manager@alicomputer.com",
			Name:      "Manager User",
			Role:      identity.RoleManager,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:  true,
		}
	})

	Describe("JSONCodec", func() {
		codec := auth.JSONCodec{}

		It("writes the persisted field names", func() {
			data, err := codec.Encode(ident)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`"role":"manager"`))
			Expect(string(data)).To(ContainSubstring(`"isActive":true`))
			Expect(string(data)).To(ContainSubstring(`"createdAt":"2024-01-01T00:00:00Z"`))

			decoded, err := codec.Decode(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(ident))
		})

		It("flags missing fields as corrupt", func() {
			_, err := codec.Decode([]byte(`{"email":"manager@alicomputer.com","role":"manager"}`))
			Expect(errors.Is(err, auth.ErrCorruptState)).To(BeTrue())
		})

		It("flags the wrong shape as corrupt", func() {
			_, err := codec.Decode([]byte(`[1,2,3]`))
			Expect(errors.Is(err, auth.ErrCorruptState)).To(BeTrue())
		})
	})

	Describe("SignedCodec", func() {
		It("round-trips the identity", func() {
			codec := auth.NewSignedCodec("secret", time.Hour)
			data, err := codec.Encode(ident)
			Expect(err).NotTo(HaveOccurred())

			decoded, err := codec.Decode(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded.ID).To(Equal(ident.ID))
			Expect(decoded.Role).To(Equal(identity.RoleManager))
			Expect(decoded.CreatedAt.Equal(ident.CreatedAt)).To(BeTrue())
		})

		It("flags a token signed with another secret as corrupt", func() {
			data, err := auth.NewSignedCodec("one", 0).Encode(ident)
			Expect(err).NotTo(HaveOccurred())

			_, err = auth.NewSignedCodec("two", 0).Decode(data)
			Expect(errors.Is(err, auth.ErrCorruptState)).To(BeTrue())
		})

		It("flags an expired token as corrupt", func() {
			codec := auth.NewSignedCodec("secret", time.Hour)
			past := codec.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
			data, err := past.Encode(ident)
			Expect(err).NotTo(HaveOccurred())

			_, err = codec.Decode(data)
			Expect(errors.Is(err, auth.ErrCorruptState)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("expired"))
		})

		It("flags plain JSON as corrupt", func() {
			data, err := auth.JSONCodec{}.Encode(ident)
			Expect(err).NotTo(HaveOccurred())

			_, err = auth.NewSignedCodec("secret", 0).Decode(data)
			Expect(errors.Is(err, auth.ErrCorruptState)).To(BeTrue())
		})
	})
})

var _ = Describe("CredentialVerifier", func() {
	It("StaticSecret accepts only the configured secret", func() {
		v := auth.NewStaticSecret("password123")
		Expect(v.Verify(nil, "password123")).To(BeTrue())
		Expect(v.Verify(nil, "password1234")).To(BeFalse())
		Expect(v.Verify(nil, "")).To(BeFalse())
	})

	It("HashedSecret checks against a bcrypt hash", func() {
		hash, err := auth.HashSecret("password123", bcrypt.MinCost)
		Expect(err).NotTo(HaveOccurred())

		v, err := auth.NewHashedSecret(hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Verify(nil, "password123")).To(BeTrue())
		Expect(v.Verify(nil, "wrong")).To(BeFalse())
	})

	It("HashedSecret rejects a value that is not a bcrypt hash", func() {
		_, err := auth.NewHashedSecret("password123")
		Expect(err).To(HaveOccurred())
	})
})
