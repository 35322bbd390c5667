package postgres_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	rbacDatamodel "github.com/bert0h-dev/busmanage-api/internal/core/datamodel/rbac"
	"github.com/bert0h-dev/busmanage-api/internal/permission"
	permissionPostgres "github.com/bert0h-dev/busmanage-api/internal/permission/postgres"
)

func TestPermissionPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Permission Postgres Suite")
}

var _ = Describe("Permission PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo permission.Repository
		ctx  context.Context

		fleet     rbacDatamodel.Module
		fleetView rbacDatamodel.Permission
	)

	createModule := func(name string, parentID *int64, sortOrder int, active bool) rbacDatamodel.Module {
		m := rbacDatamodel.Module{
			Name:        name,
			DisplayName: name,
			ParentID:    parentID,
			SortOrder:   sortOrder,
			IsActive:    active,
		}
		Expect(db.Create(&m).Error).NotTo(HaveOccurred())
		return m
	}

	createPermission := func(moduleID int64, action permission.Action, active bool) rbacDatamodel.Permission {
		p := rbacDatamodel.Permission{
			ModuleID: moduleID,
			Action:   string(action),
			IsActive: active,
		}
		Expect(db.Create(&p).Error).NotTo(HaveOccurred())
		return p
	}

	grantRole := func(role string, moduleID, permissionID int64, granted bool) {
		g := rbacDatamodel.RolePermission{
			Role:         role,
			ModuleID:     moduleID,
			PermissionID: permissionID,
			Granted:      granted,
		}
		Expect(db.Create(&g).Error).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error
		// Use SQLite in-memory database for testing
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&rbacDatamodel.Module{},
			&rbacDatamodel.Permission{},
			&rbacDatamodel.RolePermission{},
			&rbacDatamodel.UserPermission{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = permissionPostgres.NewRepository(db)
		ctx = context.Background()

		fleet = createModule("m_fleet", nil, 1, true)
		fleetView = createPermission(fleet.ID, permission.ActionView, true)
	})

	Describe("GetModuleByName", func() {
		It("should retrieve a module by its canonical name", func() {
			m, err := repo.GetModuleByName(ctx, "m_fleet")
			Expect(err).NotTo(HaveOccurred())
			Expect(m.ID).To(Equal(fleet.ID))
			Expect(m.DisplayName).To(Equal("m_fleet"))
		})

		It("should return ErrNotFound for an unknown name", func() {
			_, err := repo.GetModuleByName(ctx, "m_nada")
			Expect(err).To(MatchError(permission.ErrNotFound))
		})
	})

	Describe("GetPermission", func() {
		It("should retrieve the (module, action) pair", func() {
			p, err := repo.GetPermission(ctx, fleet.ID, permission.ActionView)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.ID).To(Equal(fleetView.ID))
		})

		It("should return ErrNotFound for an undeclared action", func() {
			_, err := repo.GetPermission(ctx, fleet.ID, permission.ActionManage)
			Expect(err).To(MatchError(permission.ErrNotFound))
		})
	})

	Describe("UpsertUserGrant", func() {
		It("should insert a new grant row", func() {
			grant := &rbacDatamodel.UserPermission{
				UserID:       "u1",
				ModuleID:     fleet.ID,
				PermissionID: fleetView.ID,
				Granted:      true,
			}
			Expect(repo.UpsertUserGrant(ctx, grant)).To(Succeed())

			stored, err := repo.GetUserGrant(ctx, "u1", fleet.ID, fleetView.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Granted).To(BeTrue())
		})

		It("should flip granted in place on conflict instead of duplicating", func() {
			first := &rbacDatamodel.UserPermission{
				UserID:       "u1",
				ModuleID:     fleet.ID,
				PermissionID: fleetView.ID,
				Granted:      true,
			}
			Expect(repo.UpsertUserGrant(ctx, first)).To(Succeed())

			second := &rbacDatamodel.UserPermission{
				UserID:       "u1",
				ModuleID:     fleet.ID,
				PermissionID: fleetView.ID,
				Granted:      false,
			}
			Expect(repo.UpsertUserGrant(ctx, second)).To(Succeed())

			var count int64
			Expect(db.Model(&rbacDatamodel.UserPermission{}).Count(&count).Error).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(1)))

			stored, err := repo.GetUserGrant(ctx, "u1", fleet.ID, fleetView.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Granted).To(BeFalse())
		})

		It("should keep grants for different users independent", func() {
			for _, userID := range []string{"u1", "u2"} {
				grant := &rbacDatamodel.UserPermission{
					UserID:       userID,
					ModuleID:     fleet.ID,
					PermissionID: fleetView.ID,
					Granted:      userID == "u1",
				}
				Expect(repo.UpsertUserGrant(ctx, grant)).To(Succeed())
			}

			g1, err := repo.GetUserGrant(ctx, "u1", fleet.ID, fleetView.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(g1.Granted).To(BeTrue())

			g2, err := repo.GetUserGrant(ctx, "u2", fleet.ID, fleetView.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(g2.Granted).To(BeFalse())
		})
	})

	Describe("DeleteUserGrant", func() {
		It("should delete an existing grant", func() {
			grant := &rbacDatamodel.UserPermission{
				UserID:       "u1",
				ModuleID:     fleet.ID,
				PermissionID: fleetView.ID,
				Granted:      false,
			}
			Expect(repo.UpsertUserGrant(ctx, grant)).To(Succeed())

			Expect(repo.DeleteUserGrant(ctx, "u1", fleet.ID, fleetView.ID)).To(Succeed())

			_, err := repo.GetUserGrant(ctx, "u1", fleet.ID, fleetView.ID)
			Expect(err).To(MatchError(permission.ErrNotFound))
		})

		It("should return ErrNotFound when no grant row matches", func() {
			err := repo.DeleteUserGrant(ctx, "u1", fleet.ID, fleetView.ID)
			Expect(err).To(MatchError(permission.ErrNotFound))
		})
	})

	Describe("GetRoleGrant", func() {
		It("should retrieve the role grant row including a deny", func() {
			grantRole("viewer", fleet.ID, fleetView.ID, false)

			g, err := repo.GetRoleGrant(ctx, "viewer", fleet.ID, fleetView.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(g.Granted).To(BeFalse())
		})

		It("should return ErrNotFound for a role without a row", func() {
			_, err := repo.GetRoleGrant(ctx, "driver", fleet.ID, fleetView.ID)
			Expect(err).To(MatchError(permission.ErrNotFound))
		})
	})

	Describe("ListRoleGrantedModules", func() {
		BeforeEach(func() {
			grantRole("coordinator", fleet.ID, fleetView.ID, true)

			units := createModule("sm_vehicle-units", &fleet.ID, 2, true)
			unitsView := createPermission(units.ID, permission.ActionView, true)
			grantRole("coordinator", units.ID, unitsView.ID, true)

			// active module granted only a non-view action stays out of the menu
			reports := createModule("m_reports", nil, 3, true)
			reportsExport := createPermission(reports.ID, permission.ActionExport, true)
			grantRole("coordinator", reports.ID, reportsExport.ID, true)

			// inactive module never surfaces even with a view grant
			retired := createModule("m_retired", nil, 4, false)
			retiredView := createPermission(retired.ID, permission.ActionView, true)
			grantRole("coordinator", retired.ID, retiredView.ID, true)

			// granted=false row is not a grant
			admin := createModule("m_system-admin", nil, 5, true)
			adminView := createPermission(admin.ID, permission.ActionView, true)
			grantRole("coordinator", admin.ID, adminView.ID, false)
		})

		It("should list only active modules with a granted view permission", func() {
			modules, err := repo.ListRoleGrantedModules(ctx, "coordinator")
			Expect(err).NotTo(HaveOccurred())
			Expect(modules).To(HaveLen(2))
			Expect(modules[0].Name).To(Equal("m_fleet"))
			Expect(modules[1].Name).To(Equal("sm_vehicle-units"))
		})

		It("should order by sort_order", func() {
			modules, err := repo.ListRoleGrantedModules(ctx, "coordinator")
			Expect(err).NotTo(HaveOccurred())
			Expect(modules[0].SortOrder).To(BeNumerically("<", modules[1].SortOrder))
		})

		It("should return an empty list for a role with no grants", func() {
			modules, err := repo.ListRoleGrantedModules(ctx, "driver")
			Expect(err).NotTo(HaveOccurred())
			Expect(modules).To(BeEmpty())
		})
	})

	Describe("ListRoleActions", func() {
		It("should list only granted actions on active permissions", func() {
			create := createPermission(fleet.ID, permission.ActionCreate, true)
			export := createPermission(fleet.ID, permission.ActionExport, false)
			update := createPermission(fleet.ID, permission.ActionUpdate, true)

			grantRole("coordinator", fleet.ID, fleetView.ID, true)
			grantRole("coordinator", fleet.ID, create.ID, true)
			grantRole("coordinator", fleet.ID, export.ID, true)
			grantRole("coordinator", fleet.ID, update.ID, false)

			actions, err := repo.ListRoleActions(ctx, "coordinator", fleet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(actions).To(ConsistOf(permission.ActionView, permission.ActionCreate))
		})
	})

	Describe("ListUserOverrides", func() {
		It("should return the user's rows as action to granted", func() {
			create := createPermission(fleet.ID, permission.ActionCreate, true)

			Expect(repo.UpsertUserGrant(ctx, &rbacDatamodel.UserPermission{
				UserID: "u1", ModuleID: fleet.ID, PermissionID: fleetView.ID, Granted: false,
			})).To(Succeed())
			Expect(repo.UpsertUserGrant(ctx, &rbacDatamodel.UserPermission{
				UserID: "u1", ModuleID: fleet.ID, PermissionID: create.ID, Granted: true,
			})).To(Succeed())
			Expect(repo.UpsertUserGrant(ctx, &rbacDatamodel.UserPermission{
				UserID: "u2", ModuleID: fleet.ID, PermissionID: fleetView.ID, Granted: true,
			})).To(Succeed())

			overrides, err := repo.ListUserOverrides(ctx, "u1", fleet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(overrides).To(HaveLen(2))
			Expect(overrides[permission.ActionView]).To(BeFalse())
			Expect(overrides[permission.ActionCreate]).To(BeTrue())
		})

		It("should skip rows on inactive permissions", func() {
			dormant := createPermission(fleet.ID, permission.ActionPrint, false)
			Expect(repo.UpsertUserGrant(ctx, &rbacDatamodel.UserPermission{
				UserID: "u1", ModuleID: fleet.ID, PermissionID: dormant.ID, Granted: true,
			})).To(Succeed())

			overrides, err := repo.ListUserOverrides(ctx, "u1", fleet.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(overrides).To(BeEmpty())
		})
	})
})
